package backup

import (
	"encoding/json"
	"fmt"
)

// ValidationError reports why an uploaded backup cannot be restored.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid backup: %s", e.Reason)
}

// Validate checks that raw looks like a full catalog backup before anything
// is replaced. It fails fast on the first structural problem.
func Validate(raw []byte) error {
	var shape struct {
		Wines    *[]json.RawMessage `json:"wines"`
		Wineries *[]json.RawMessage `json:"wineries"`
		Menu     *[]json.RawMessage `json:"menu"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return &ValidationError{Reason: "payload is not a JSON object"}
	}
	if shape.Wines == nil {
		return &ValidationError{Reason: "missing wines collection"}
	}
	if shape.Wineries == nil {
		return &ValidationError{Reason: "missing wineries collection"}
	}
	if shape.Menu == nil {
		return &ValidationError{Reason: "missing menu collection"}
	}

	if len(*shape.Wines) > 0 {
		var probe struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal((*shape.Wines)[0], &probe); err != nil {
			return &ValidationError{Reason: "wines entries are not objects"}
		}
		if probe.ID == "" || probe.Name == "" {
			return &ValidationError{Reason: "wine entries must carry id and name"}
		}
	}
	return nil
}
