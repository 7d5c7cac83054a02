// internal/workers/credit/rotate-director-pin/models.go
package rotatedirectorpin

import "time"

type Input struct {
	CurrentPIN string `json:"currentPin"`
	NewPIN     string `json:"newPin"`
}

type Output struct {
	Rotated   bool      `json:"rotated"`
	RotatedAt time.Time `json:"rotatedAt"`
}

var inputSchema = `{
	"type": "object",
	"required": ["currentPin", "newPin"],
	"properties": {
		"currentPin": {"type": "string"},
		"newPin": {"type": "string"}
	}
}`
