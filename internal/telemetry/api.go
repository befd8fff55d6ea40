package telemetry

import (
	"strings"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

// ApiResponse models the top-level structure of the upstream API's response.
type ApiResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int       `json:"page"`
		PageSize int       `json:"pageSize"`
		Total    int       `json:"total"`
		Items    []Reading `json:"items"`
	} `json:"data"`
}

// Reading is one machine's reported state. Absent fields are left untouched.
type Reading struct {
	MachineID   string   `json:"machineId"`
	Status      string   `json:"status"`
	Temperature *float64 `json:"temperature"`
	Pressure    *float64 `json:"pressure"`
	WaterLevel  *int     `json:"waterLevel"`
	MilkLevel   *int     `json:"milkLevel"`
	BeansLevel  *int     `json:"beansLevel"`
	SugarLevel  *int     `json:"sugarLevel"`
	CupsLevel   *int     `json:"cupsLevel"`
	DailyCups   *int     `json:"dailyCups"`
}

// Update converts the reading into a sparse machine update.
func (r Reading) Update() (model.MachineUpdate, error) {
	u := model.MachineUpdate{
		Temperature: r.Temperature,
		Pressure:    r.Pressure,
		DailyCups:   r.DailyCups,
		Supplies: model.SupplyUpdate{
			Water: r.WaterLevel,
			Milk:  r.MilkLevel,
			Beans: r.BeansLevel,
			Sugar: r.SugarLevel,
			Cups:  r.CupsLevel,
		},
	}
	if strings.TrimSpace(r.Status) != "" {
		status, err := model.ParseStatus(r.Status)
		if err != nil {
			return model.MachineUpdate{}, err
		}
		u.Status = &status
	}
	return u, nil
}
