package controllers

import (
	"net/http"

	"device-loan-backend/app"
	"device-loan-backend/db"
	"device-loan-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

// GET /api/devices/available-count — kiosk landing screen, no auth
func (dc *DeviceController) AvailableCount(c *gin.Context) {
	n, err := dc.Repo.CountDevicesByStatus(c.Request.Context(), models.DeviceAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"available": n})
}

// GET /api/devices
func (dc *DeviceController) List(c *gin.Context) {
	devices, err := dc.Repo.ListDevices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": devices})
}

// GET /api/devices/lookup?barcode=|qrCode=|assetNumber=
func (dc *DeviceController) Lookup(c *gin.Context) {
	device, err := dc.Repo.FindDeviceByIdentifier(c.Request.Context(), db.Identifier{
		Barcode:     c.Query("barcode"),
		QRCode:      c.Query("qrCode"),
		AssetNumber: c.Query("assetNumber"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"data": device})
}

// POST /api/devices — admin registers a device
func (dc *DeviceController) Create(c *gin.Context) {
	var in struct {
		AssetNumber  string  `json:"assetNumber" binding:"required"`
		Barcode      string  `json:"barcode" binding:"required"`
		QRCode       *string `json:"qrCode"`
		Make         string  `json:"make"`
		Model        string  `json:"model"`
		SerialNumber string  `json:"serialNumber"`
		Notes        string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "assetNumber and barcode are required"})
		return
	}

	device := &models.Device{
		ID:           uuid.NewString(),
		AssetNumber:  in.AssetNumber,
		Barcode:      in.Barcode,
		QRCode:       in.QRCode,
		Status:       models.DeviceAvailable,
		Make:         in.Make,
		Model:        in.Model,
		SerialNumber: in.SerialNumber,
		Notes:        in.Notes,
	}
	if err := dc.Repo.CreateDevice(c.Request.Context(), device); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"data": device})
}

// PUT /api/devices/:id — admin edits fields; a status change goes
// through the guarded administrative transition.
func (dc *DeviceController) Update(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		AssetNumber  *string `json:"assetNumber"`
		Barcode      *string `json:"barcode"`
		QRCode       *string `json:"qrCode"`
		Status       *string `json:"status"`
		Make         *string `json:"make"`
		Model        *string `json:"model"`
		SerialNumber *string `json:"serialNumber"`
		Notes        *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if in.AssetNumber != nil {
		updates["asset_number"] = *in.AssetNumber
	}
	if in.Barcode != nil {
		updates["barcode"] = *in.Barcode
	}
	if in.QRCode != nil {
		updates["qr_code"] = *in.QRCode
	}
	if in.Make != nil {
		updates["make"] = *in.Make
	}
	if in.Model != nil {
		updates["model"] = *in.Model
	}
	if in.SerialNumber != nil {
		updates["serial_number"] = *in.SerialNumber
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}

	device, err := dc.Repo.UpdateDevice(c.Request.Context(), id, updates)
	if err != nil {
		respondError(c, err)
		return
	}

	if in.Status != nil && models.DeviceStatus(*in.Status) != device.Status {
		device, err = dc.Repo.SetDeviceStatus(c.Request.Context(), id, models.DeviceStatus(*in.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		dc.audit(c, "device_status", nil, &device.ID, "set to "+*in.Status)
	}
	c.JSON(http.StatusOK, app.H{"data": device})
}
