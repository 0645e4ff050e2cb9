package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width, Height   int
	Workers         int
	BlockSize       int
	SamplesPerPixel int
	Blocks          int           // blocks rendered
	TotalSamples    int           // camera samples taken
	InvalidSamples  int           // samples that were NaN, infinite or negative and got zeroed
	Elapsed         time.Duration // wall time of the render

	blockTimes []float64 // per-block render time in milliseconds
}

// BlockTimeSummary describes how long blocks took to render
type BlockTimeSummary struct {
	Mean, StdDev float64 // milliseconds
	Min, Max     float64 // milliseconds
}

func (s *RenderStats) addBlock(result BlockResult) {
	s.Blocks++
	s.TotalSamples += result.Samples
	s.InvalidSamples += result.InvalidSamples
	s.blockTimes = append(s.blockTimes, float64(result.Elapsed)/float64(time.Millisecond))
}

// BlockTimes summarizes the per-block render times
func (s *RenderStats) BlockTimes() BlockTimeSummary {
	if len(s.blockTimes) == 0 {
		return BlockTimeSummary{}
	}
	mean, std := stat.MeanStdDev(s.blockTimes, nil)
	if len(s.blockTimes) == 1 {
		std = 0
	}
	return BlockTimeSummary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(s.blockTimes),
		Max:    floats.Max(s.blockTimes),
	}
}

// SamplesPerSecond returns the camera sample throughput
func (s *RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}

// WriteTable renders the statistics as a table
func (s *RenderStats) WriteTable(w io.Writer) {
	times := s.BlockTimes()

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Statistic", "Value"})
	table.Append([]string{"Resolution", fmt.Sprintf("%dx%d", s.Width, s.Height)})
	table.Append([]string{"Workers", fmt.Sprintf("%d", s.Workers)})
	table.Append([]string{"Samples per pixel", fmt.Sprintf("%d", s.SamplesPerPixel)})
	table.Append([]string{"Blocks", fmt.Sprintf("%d (%dx%d)", s.Blocks, s.BlockSize, s.BlockSize)})
	table.Append([]string{"Block time", fmt.Sprintf("%.1f ms +- %.1f (min %.1f, max %.1f)", times.Mean, times.StdDev, times.Min, times.Max)})
	table.Append([]string{"Samples", fmt.Sprintf("%d", s.TotalSamples)})
	table.Append([]string{"Invalid samples", fmt.Sprintf("%d", s.InvalidSamples)})
	table.Append([]string{"Throughput", fmt.Sprintf("%.0f samples/s", s.SamplesPerSecond())})
	table.SetFooter([]string{"Render time", s.Elapsed.Round(time.Millisecond).String()})
	table.Render()
}
