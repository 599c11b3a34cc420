// Package services defines the error taxonomy shared by the capture
// subsystems: sentinel markers for classification plus helpers for wrapping
// stage context into error chains.
package services
