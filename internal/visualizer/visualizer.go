package visualizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cryptocollector/internal/model"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// maxAxisLabels bounds how many time labels the volume axis shows.
const maxAxisLabels = 6

// SnapshotSource reads stored snapshots for a symbol ordered by
// timestamp ascending. Implemented by the postgres client.
type SnapshotSource interface {
	SnapshotsInRange(ctx context.Context, symbol string, from, to time.Time) ([]model.Snapshot, error)
}

// Renderer draws price and volume trend charts from durable snapshots.
// Strictly read-only: it shares nothing with the collection path beyond
// the store it reads from.
type Renderer struct {
	source SnapshotSource
	outDir string
	log    *zap.Logger
}

func NewRenderer(source SnapshotSource, outDir string, log *zap.Logger) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Renderer{source: source, outDir: outDir, log: log}, nil
}

// Run renders charts for every symbol at startup and then once per
// interval until the context is cancelled. Render failures are logged,
// never fatal.
func (r *Renderer) Run(ctx context.Context, symbols []string, interval, lookback time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.renderAll(ctx, symbols, lookback)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.renderAll(ctx, symbols, lookback)
		}
	}
}

func (r *Renderer) renderAll(ctx context.Context, symbols []string, lookback time.Duration) {
	now := time.Now().UTC()
	for _, symbol := range symbols {
		path, err := r.RenderOnce(ctx, symbol, now.Add(-lookback), now)
		if err != nil {
			r.log.Error("failed to render trend chart",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		r.log.Info("trend chart written",
			zap.String("symbol", symbol), zap.String("path", path))
	}
}

// RenderOnce reads the snapshots for symbol within [from, to] and writes
// a PNG with two stacked panels: price over time and volume over time.
// An empty range still produces a placeholder chart; the operator gets
// an artifact either way.
func (r *Renderer) RenderOnce(ctx context.Context, symbol string, from, to time.Time) (string, error) {
	snaps, err := r.source.SnapshotsInRange(ctx, symbol, from, to)
	if err != nil {
		return "", fmt.Errorf("read snapshots: %w", err)
	}
	if len(snaps) == 0 {
		r.log.Warn("no snapshots in range, rendering placeholder",
			zap.String("symbol", symbol),
			zap.Time("from", from), zap.Time("to", to))
	}

	pricePlot, err := buildPricePlot(symbol, snaps)
	if err != nil {
		return "", err
	}
	volumePlot, err := buildVolumePlot(symbol, snaps)
	if err != nil {
		return "", err
	}

	img := vgimg.New(20*vg.Centimeter, 15*vg.Centimeter)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 1,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{{pricePlot}, {volumePlot}}, tiles, dc)
	pricePlot.Draw(canvases[0][0])
	volumePlot.Draw(canvases[1][0])

	path := filepath.Join(r.outDir, fmt.Sprintf("%s_trend_%d.png", sanitizeSymbol(symbol), to.Unix()))
	w, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

func buildPricePlot(symbol string, snaps []model.Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Price Trend for %s", symbol)
	if len(snaps) == 0 {
		p.Title.Text += " (no data)"
	}
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15:04"}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(snaps))
	for i, s := range snaps {
		pts[i].X = float64(s.Timestamp.Unix())
		pts[i].Y = s.LastPrice
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("price line: %w", err)
	}
	p.Add(line)
	return p, nil
}

func buildVolumePlot(symbol string, snaps []model.Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Volume Trend for %s", symbol)
	if len(snaps) == 0 {
		p.Title.Text += " (no data)"
	}
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Volume"
	p.Add(plotter.NewGrid())

	values := make(plotter.Values, len(snaps))
	for i, s := range snaps {
		values[i] = s.Volume
	}
	bars, err := plotter.NewBarChart(values, vg.Points(4))
	if err != nil {
		return nil, fmt.Errorf("volume bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(timeLabels(snaps)...)
	return p, nil
}

// timeLabels produces one label per snapshot but blanks all except a
// handful of evenly spaced ones so the axis stays readable.
func timeLabels(snaps []model.Snapshot) []string {
	labels := make([]string, len(snaps))
	if len(snaps) == 0 {
		return labels
	}
	step := len(snaps) / maxAxisLabels
	if step < 1 {
		step = 1
	}
	for i, s := range snaps {
		if i%step == 0 || i == len(snaps)-1 {
			labels[i] = s.Timestamp.Format("15:04")
		}
	}
	return labels
}

func sanitizeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}
