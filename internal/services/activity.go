package services

import (
	"encoding/json"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// logActivity appends one audit row inside the caller's transaction.
func logActivity(tx *gorm.DB, policyID, action, description, performedBy string, details map[string]any) error {
	var payload datatypes.JSON
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return WrapDatabase(err)
		}
		payload = datatypes.JSON(raw)
	}
	activity := models.PolicyActivity{
		PolicyID:    policyID,
		Action:      action,
		Description: description,
		Details:     payload,
		PerformedBy: performedBy,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return WrapDatabase(err)
	}
	return nil
}
