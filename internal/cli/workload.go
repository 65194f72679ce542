package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/stampede/internal/workload"
)

// workloadFunc runs one named workload with the command's flags.
type workloadFunc func(cmd *cobra.Command) (interface{}, error)

var workloads = map[string]workloadFunc{
	"sort-quick": func(cmd *cobra.Command) (interface{}, error) {
		return runSort(cmd, "quick", workload.QuickSort)
	},
	"sort-bubble": func(cmd *cobra.Command) (interface{}, error) {
		return runSort(cmd, "bubble", workload.BubbleSort)
	},
	"cpu": func(cmd *cobra.Command) (interface{}, error) {
		d, _ := cmd.Flags().GetDuration("duration")
		if !cmd.Flags().Changed("duration") {
			d = workload.DefaultCPUDuration
		}
		start := time.Now()
		ops := workload.CPUBound(cmd.Context(), d, workload.DefaultCPUOperations)
		return map[string]interface{}{
			"operations": ops,
			"durationMs": time.Since(start).Milliseconds(),
		}, nil
	},
	"long-running": func(cmd *cobra.Command) (interface{}, error) {
		d, _ := cmd.Flags().GetDuration("duration")
		if !cmd.Flags().Changed("duration") {
			d = workload.DefaultLongRunningDuration
		}
		return workload.LongRunning(cmd.Context(), d, workload.DefaultLongRunningTick), nil
	},
	"heap": func(cmd *cobra.Command) (interface{}, error) {
		arrays, _ := cmd.Flags().GetInt("count")
		size, _ := cmd.Flags().GetInt("size")
		if !cmd.Flags().Changed("count") {
			arrays = workload.DefaultHeapArrays
		}
		if !cmd.Flags().Changed("size") {
			size = workload.DefaultHeapArraySize
		}
		if arrays < 0 || size < 0 {
			return nil, fmt.Errorf("--count and --size must not be negative")
		}
		if !workload.HeapFits(arrays, size) {
			return nil, fmt.Errorf("--count x --size must stay within %dMB of float64s", workload.MaxHeapBytes>>20)
		}
		return workload.HeapStress(arrays, size), nil
	},
	"stack": func(cmd *cobra.Command) (interface{}, error) {
		depth, _ := cmd.Flags().GetInt("levels")
		if !cmd.Flags().Changed("levels") {
			depth = workload.DefaultStackDepth
		}
		return workload.StackDepth(depth), nil
	},
	"recursion": func(cmd *cobra.Command) (interface{}, error) {
		levels, _ := cmd.Flags().GetInt("levels")
		if !cmd.Flags().Changed("levels") {
			levels = workload.DefaultRecursionLevels
		}
		if levels < 0 {
			return nil, fmt.Errorf("--levels must not be negative")
		}
		return map[string]interface{}{
			"levels": levels,
			"result": workload.DeepRecursion(levels),
		}, nil
	},
	"mock": func(cmd *cobra.Command) (interface{}, error) {
		count, _ := cmd.Flags().GetInt("count")
		return workload.GenerateMockData(count), nil
	},
	"delay": func(cmd *cobra.Command) (interface{}, error) {
		minDelay, _ := cmd.Flags().GetDuration("min")
		maxDelay, _ := cmd.Flags().GetDuration("max")
		delay, err := workload.ProcessingDelay(cmd.Context(), minDelay, maxDelay)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"delayMs": delay.Milliseconds()}, nil
	},
}

func workloadNames() []string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newWorkloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload NAME",
		Short: "Run one of the demo workloads locally and print its result",
		Long: fmt.Sprintf(`Run one of the workloads the demo server exposes, in process.

Available workloads: %s

  stampede workload sort-quick --size 100000
  stampede workload recursion --levels 5000
  stampede workload mock --count 3 --format yaml`, strings.Join(workloadNames(), ", ")),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: workloadNames(),
		RunE:      runWorkload,
	}

	cmd.Flags().Int("size", workload.DefaultArraySize, "Array size for sort and heap workloads")
	cmd.Flags().Int("levels", 0, fmt.Sprintf("Depth for recursion and stack workloads (default %d for recursion, %d for stack)",
		workload.DefaultRecursionLevels, workload.DefaultStackDepth))
	cmd.Flags().Int("count", workload.DefaultMockCount, "Item count for mock, array count for heap")
	cmd.Flags().Duration("duration", 0, "Run time for cpu and long-running workloads")
	cmd.Flags().Duration("min", 100*time.Millisecond, "Minimum delay for the delay workload")
	cmd.Flags().Duration("max", time.Second, "Maximum delay for the delay workload")
	cmd.Flags().StringP("format", "f", "json", "Result format: json or yaml")

	return cmd
}

func runWorkload(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}

	result, err := workloads[args[0]](cmd)
	if err != nil {
		return err
	}

	var out []byte
	if format == "yaml" {
		out, err = yaml.Marshal(result)
	} else {
		out, err = json.MarshalIndent(result, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runSort(cmd *cobra.Command, algorithm string, sortFn func([]int) []int) (interface{}, error) {
	size, _ := cmd.Flags().GetInt("size")
	if size < 0 {
		return nil, fmt.Errorf("--size must not be negative")
	}

	input := workload.GenerateTestArray(size)
	start := time.Now()
	sorted := sortFn(input)
	elapsed := time.Since(start)

	sample := sorted
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return map[string]interface{}{
		"algorithm":  algorithm,
		"size":       size,
		"durationMs": elapsed.Milliseconds(),
		"sample":     sample,
	}, nil
}
