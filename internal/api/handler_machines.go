package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/health"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/mw"
)

// identity returns the caller stored by the authentication middleware.
func (h *Handler) identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := mw.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
	}
	return id, ok
}

func machinePK(c *gin.Context) (int64, bool) {
	pk, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || pk <= 0 {
		badRequest(c, "invalid machine id")
		return 0, false
	}
	return pk, true
}

// threshold parses the optional low-supply threshold query parameter.
func threshold(c *gin.Context) (int, bool) {
	raw, ok := c.GetQuery("threshold")
	if !ok || raw == "" {
		return health.DefaultLowSupplyThreshold, true
	}
	t, err := strconv.Atoi(raw)
	if err != nil || t < 0 {
		badRequest(c, "threshold must be a non-negative integer")
		return 0, false
	}
	return t, true
}

// ListMachines returns the visible machines matching the location, office and floor query parameters.
func (h *Handler) ListMachines(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}

	machines, err := h.engine.ListVisibleMachines(c.Request.Context(), id, access.Filter{
		Location: c.Query("location"),
		Office:   c.Query("office"),
		Floor:    c.Query("floor"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// ListMachinesAt returns the visible machines on one floor. All three of
// location, office and floor are required.
func (h *Handler) ListMachinesAt(c *gin.Context) {
	if c.Query("location") == "" || c.Query("office") == "" || c.Query("floor") == "" {
		badRequest(c, "location, office and floor are required")
		return
	}
	h.ListMachines(c)
}

// GetMachine returns a machine by primary key.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	pk, ok := machinePK(c)
	if !ok {
		return
	}

	m, err := h.engine.GetMachine(c.Request.Context(), id, pk)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetMachineByMachineID returns a machine by its external identifier.
func (h *Handler) GetMachineByMachineID(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}

	m, err := h.engine.GetMachineByMachineID(c.Request.Context(), id, c.Param("machineId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetMachineHealth reports every derived condition of a machine.
func (h *Handler) GetMachineHealth(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	pk, ok := machinePK(c)
	if !ok {
		return
	}
	t, ok := threshold(c)
	if !ok {
		return
	}

	report, err := h.engine.MachineHealth(c.Request.Context(), id, pk, t)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListLocations returns the distinct visible locations.
func (h *Handler) ListLocations(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}

	locations, err := h.engine.DistinctLocations(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

// ListOffices returns the distinct visible offices at a location.
func (h *Handler) ListOffices(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	location := c.Query("location")
	if location == "" {
		badRequest(c, "location is required")
		return
	}

	offices, err := h.engine.DistinctOffices(c.Request.Context(), id, location)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offices)
}

// ListFloors returns the distinct visible floors of an office.
func (h *Handler) ListFloors(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	location, office := c.Query("location"), c.Query("office")
	if location == "" || office == "" {
		badRequest(c, "location and office are required")
		return
	}

	floors, err := h.engine.DistinctFloors(c.Request.Context(), id, location, office)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, floors)
}

// ListLowSupplies returns the visible machines with a supply level below the threshold.
func (h *Handler) ListLowSupplies(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	t, ok := threshold(c)
	if !ok {
		return
	}

	machines, err := h.engine.LowSupplyMachines(c.Request.Context(), id, t)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// ListMaintenanceNeeded returns the visible machines that need maintenance.
func (h *Handler) ListMaintenanceNeeded(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}

	machines, err := h.engine.MaintenanceNeededMachines(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// UpdateMachine applies a sparse update to a machine.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	pk, ok := machinePK(c)
	if !ok {
		return
	}

	var req model.MachineUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.fleet.UpdateMachine(c.Request.Context(), id, pk, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateSupplies applies a sparse supply update to a machine.
func (h *Handler) UpdateSupplies(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	pk, ok := machinePK(c)
	if !ok {
		return
	}

	var req model.SupplyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.fleet.UpdateSupplies(c.Request.Context(), id, pk, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
