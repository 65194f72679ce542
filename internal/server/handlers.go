package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesleyorama2/stampede/internal/loadgen"
	"github.com/wesleyorama2/stampede/internal/workload"
)

// Query bounds. Heap requests are also held to workload.MaxHeapBytes.
const (
	maxQuickSortSize  = 1000000
	maxBubbleSortSize = 20000
	maxCPUDuration    = time.Minute
	maxLongRunning    = 10 * time.Minute
	maxHeapArrays     = 1000
	maxHeapArraySize  = 10000000
	maxStackDepth     = 1000000
	maxRecursion      = 100000
	maxSlowMillis     = 60000
	maxMockCount      = 10000
	maxTrafficBatch   = 10000
	maxTrafficTimeout = time.Minute

	sortSampleSize = 10
)

type sortAlgorithm string

const (
	sortQuick  sortAlgorithm = "quick"
	sortBubble sortAlgorithm = "bubble"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.started).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSort(algorithm sortAlgorithm) gin.HandlerFunc {
	limit := maxQuickSortSize
	sortFn := workload.QuickSort
	if algorithm == sortBubble {
		limit = maxBubbleSortSize
		sortFn = workload.BubbleSort
	}

	return func(c *gin.Context) {
		size, ok := intQuery(c, "size", workload.DefaultArraySize, 0, limit)
		if !ok {
			return
		}

		input := workload.GenerateTestArray(size)
		start := time.Now()
		sorted := sortFn(input)
		elapsed := time.Since(start)

		sample := sorted
		if len(sample) > sortSampleSize {
			sample = sample[:sortSampleSize]
		}
		c.JSON(http.StatusOK, gin.H{
			"algorithm":  string(algorithm),
			"size":       size,
			"durationMs": elapsed.Milliseconds(),
			"sample":     sample,
		})
	}
}

func (s *Server) handleCPU(c *gin.Context) {
	maxDuration, ok := durationQuery(c, "duration", workload.DefaultCPUDuration, maxCPUDuration)
	if !ok {
		return
	}
	maxOps, ok := intQuery(c, "ops", workload.DefaultCPUOperations, 0, 1<<31-1)
	if !ok {
		return
	}

	start := time.Now()
	ops := workload.CPUBound(c.Request.Context(), maxDuration, maxOps)
	c.JSON(http.StatusOK, gin.H{
		"operations": ops,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleLongRunning(c *gin.Context) {
	target, ok := durationQuery(c, "duration", workload.DefaultLongRunningDuration, maxLongRunning)
	if !ok {
		return
	}
	tick, ok := durationQuery(c, "tick", workload.DefaultLongRunningTick, time.Minute)
	if !ok {
		return
	}
	if tick <= 0 {
		badRequest(c, "tick must be positive")
		return
	}

	c.JSON(http.StatusOK, workload.LongRunning(c.Request.Context(), target, tick))
}

func (s *Server) handleHeap(c *gin.Context) {
	arrays, ok := intQuery(c, "arrays", workload.DefaultHeapArrays, 0, maxHeapArrays)
	if !ok {
		return
	}
	size, ok := intQuery(c, "size", workload.DefaultHeapArraySize, 0, maxHeapArraySize)
	if !ok {
		return
	}
	if !workload.HeapFits(arrays, size) {
		badRequest(c, fmt.Sprintf("arrays*size must stay within %dMB of float64s", workload.MaxHeapBytes>>20))
		return
	}

	result := workload.HeapStress(arrays, size)
	status := http.StatusOK
	if result.Error != "" {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

func (s *Server) handleStack(c *gin.Context) {
	depth, ok := intQuery(c, "depth", workload.DefaultStackDepth, 0, maxStackDepth)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, workload.StackDepth(depth))
}

func (s *Server) handleRecursion(c *gin.Context) {
	levels, err := strconv.Atoi(c.Param("levels"))
	if err != nil || levels < 0 || levels > maxRecursion {
		badRequest(c, fmt.Sprintf("levels must be an integer between 0 and %d", maxRecursion))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"levels": levels,
		"result": workload.DeepRecursion(levels),
	})
}

func (s *Server) handleSlow(c *gin.Context) {
	minMs, ok := intQuery(c, "min", 100, 0, maxSlowMillis)
	if !ok {
		return
	}
	maxMs, ok := intQuery(c, "max", 1000, 0, maxSlowMillis)
	if !ok {
		return
	}

	delay, err := workload.ProcessingDelay(c.Request.Context(),
		time.Duration(minMs)*time.Millisecond,
		time.Duration(maxMs)*time.Millisecond)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delayMs": delay.Milliseconds()})
}

func (s *Server) handleMock(c *gin.Context) {
	count, ok := intQuery(c, "count", workload.DefaultMockCount, 0, maxMockCount)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": count,
		"items": workload.GenerateMockData(count),
	})
}

// handleTraffic fires a batch at this server's own /health endpoint, reached
// through the listener address rather than the request's Host header.
func (s *Server) handleTraffic(c *gin.Context) {
	requests, ok := intQuery(c, "requests", loadgen.DefaultRequests, 0, maxTrafficBatch)
	if !ok {
		return
	}
	timeout, ok := durationQuery(c, "timeout", loadgen.DefaultTimeout, maxTrafficTimeout)
	if !ok {
		return
	}
	base := s.selfURL()
	if base == "" {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server is not listening"})
		return
	}

	report := loadgen.Run(c.Request.Context(), loadgen.Options{
		BaseURL:  base,
		Path:     loadgen.DefaultPath,
		Requests: requests,
		Timeout:  timeout,
		Logger:   s.log,
	})

	summary := *report
	summary.Outcomes = nil
	c.JSON(http.StatusOK, summary)
}

// intQuery reads an optional integer query parameter within [min, max].
// On a bad value it writes a 400 response and returns false.
func intQuery(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		badRequest(c, fmt.Sprintf("%s must be an integer between %d and %d", name, min, max))
		return 0, false
	}
	return n, true
}

// durationQuery reads an optional duration such as 500ms or 2s. Bare
// integers are taken as milliseconds.
func durationQuery(c *gin.Context, name string, def, max time.Duration) (time.Duration, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		ms, convErr := strconv.Atoi(raw)
		if convErr != nil {
			badRequest(c, fmt.Sprintf("%s must be a duration such as 500ms or 2s", name))
			return 0, false
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d < 0 || d > max {
		badRequest(c, fmt.Sprintf("%s must be between 0 and %s", name, max))
		return 0, false
	}
	return d, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
