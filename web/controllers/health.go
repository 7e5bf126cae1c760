package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

func Health(c *gin.Context) {
	report := gin.H{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	}

	if cpuUsage, err := cpu.Percent(0, false); err == nil && len(cpuUsage) > 0 {
		report["cpu_percent"] = cpuUsage[0]
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		report["mem_used_percent"] = memInfo.UsedPercent
	}

	c.JSON(http.StatusOK, report)
}
