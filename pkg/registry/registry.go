// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solar-pumping-workers/internal/common/validation"
)

// Task types of the sizing activities.
const (
	TaskComputeSizing    = "compute-sizing"
	TaskHourlyProduction = "hourly-production"
	TaskListHistory      = "list-history"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrDefault reads path, or returns the built-in registry when path is empty.
func LoadOrDefault(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputSchemaFor returns the input schema of taskType, nil when unknown.
func (r *ActivityRegistry) InputSchemaFor(taskType string) map[string]interface{} {
	if a, ok := r.Find(taskType); ok {
		return a.InputSchema
	}
	return nil
}

var configurationErrors = []string{
	"INVALID_INPUT",
	"NO_BATTERY_AVAILABLE",
	"NO_PANEL_AVAILABLE",
	"NO_PUMP_AVAILABLE",
	"MISSING_ASSUMPTIONS",
}

// Default is the registry of the activities this service implements.
func Default() *ActivityRegistry {
	site := func(s *validation.Schema) *validation.Schema {
		return s.
			Number("lat", validation.Float(-90), validation.Float(90), true).
			Number("lon", validation.Float(-180), validation.Float(180), true)
	}

	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:          "compute-sizing",
				DisplayName: "Compute Solar Pumping Sizing",
				Description: "Sizes panels, pump and battery bank for a daily water demand and computes the LCOE.",
				Version:     "1.0.0",
				TaskType:    TaskComputeSizing,
				InputSchema: site(validation.Object()).
					Number("volume", validation.Float(0), nil, true).
					Number("hmt", validation.Float(0), nil, true).
					Number("autonomy_days", validation.Float(0), nil, false).
					Enum("optimization_target", []string{"cost", "performance", "budget"}, false).
					Integer("lifespan", 1, false).
					Build(),
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"simulationId", "technical", "financials", "components"},
				},
				ErrorCodes: append(append([]string(nil), configurationErrors...), "CATALOG_LOAD_FAILED"),
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "hourly-production",
				DisplayName: "Hourly PV Production Profile",
				Description: "Average production per hour of day for an installed peak power.",
				Version:     "1.0.0",
				TaskType:    TaskHourlyProduction,
				InputSchema: site(validation.Object()).
					Number("kwc", validation.Float(0), nil, true).
					Build(),
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"hourlyProductionKw", "isLive"},
				},
				ErrorCodes: []string{"INVALID_INPUT"},
				Timeout:    "15s",
				Retries:    1,
			},
			{
				ID:          "list-history",
				DisplayName: "List Recent Simulations",
				Description: "Returns the most recent saved simulations, newest first.",
				Version:     "1.0.0",
				TaskType:    TaskListHistory,
				InputSchema: validation.Object().
					Integer("limit", 1, false).
					Build(),
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"simulations"},
				},
				ErrorCodes: []string{"QUERY_EXECUTION_FAILED"},
				Timeout:    "10s",
				Retries:    3,
			},
		},
	}
}

// Validate checks the fields the workers rely on and that every task type
// in required is registered.
func (r *ActivityRegistry) Validate(required ...string) error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: id")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity id: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: taskType", activity.ID)
		}
		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: displayName", activity.ID)
		}
		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
	}

	for _, taskType := range required {
		if _, ok := r.Find(taskType); !ok {
			return fmt.Errorf("no activity registered for task type %s", taskType)
		}
	}
	return nil
}

// Save writes the registry as indented JSON, creating the directory.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
