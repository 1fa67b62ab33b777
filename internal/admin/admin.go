/*
Package admin implements the operator surface. Admins are ordinary
users whose is_admin flag is set server-side; every request re-verifies
the flag, there are no sessions to revoke.
*/
package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"menupick/internal/cleanup"
	"menupick/internal/database"
	"menupick/internal/utility"
)

var (
	queries    *database.Queries
	cleanupSvc *cleanup.Service
	StartTime  = time.Now()
)

// InitAdminPackage wires the package-level dependencies.
func InitAdminPackage(q *database.Queries, svc *cleanup.Service) {
	queries = q
	cleanupSvc = svc
	log.Info().Msg("Admin package initialized.")
}

// requireAdmin resolves the :uuid path parameter to an admin user.
// Check order is fixed: missing uuid is 401, unknown user 404,
// non-admin 403. The error return already carries the JSON response.
func requireAdmin(c echo.Context) (database.User, error) {
	uuid := c.Param("uuid")
	if uuid == "" {
		return database.User{}, c.JSON(http.StatusUnauthorized, map[string]string{"error": "Admin uuid required"})
	}

	u, err := queries.GetUserByUuid(c.Request().Context(), uuid)
	if err != nil {
		return database.User{}, c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	if !u.IsAdmin {
		log.Warn().Str("uuid", uuid).Msg("Non-admin attempted admin access")
		return database.User{}, c.JSON(http.StatusForbidden, map[string]string{"error": "Admin privileges required"})
	}

	return u, nil
}

// VerifyHandler confirms the caller's admin standing.
func VerifyHandler(c echo.Context) error {
	u, err := requireAdmin(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"is_admin": true,
		"uuid":     u.Uuid,
	})
}

// CleanupStatusHandler reports the batch-job outlook without deleting
// anything.
func CleanupStatusHandler(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	status, err := cleanupSvc.Status(c.Request().Context())
	if err != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to compute cleanup status", err)
	}
	return c.JSON(http.StatusOK, status)
}

// CleanupRunHandler triggers an immediate cleanup pass.
func CleanupRunHandler(c echo.Context) error {
	u, err := requireAdmin(c)
	if err != nil {
		return err
	}

	log.Info().Str("admin_uuid", u.Uuid).Msg("Manual cleanup run requested")

	result, err := cleanupSvc.Cleanup(c.Request().Context())
	if err != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Cleanup run failed", err)
	}
	return c.JSON(http.StatusOK, result)
}

// SystemStatusHandler collects and returns system-level metrics.
func SystemStatusHandler(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	v, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(time.Second, false)
	d, _ := disk.Usage("/")
	hInfo, _ := host.Info()

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "online",
		"runtime": map[string]any{
			"uptime":     time.Since(StartTime).String(),
			"start_time": StartTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"arch":       hInfo.KernelArch,
			"hostname":   hInfo.Hostname,
		},
		"cpu": map[string]any{
			"usage_percent": cpuUsage,
			"cores":         hInfo.Procs,
		},
		"memory": map[string]any{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
			"free_gb":      fmt.Sprintf("%.2f GB", float64(v.Free)/1024/1024/1024),
		},
		"disk": map[string]any{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(d.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		},
	})
}
