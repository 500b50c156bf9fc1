package main

import (
	"fmt"
	"io"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/host/memory"
	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
)

func printResult(out io.Writer, direction nudge.Direction, res *nudge.Result) {
	fmt.Fprintf(out, "%-10s moved %s by (%.4f, %.4f, %.4f)",
		direction, res.Moved, res.Offset[0], res.Offset[1], res.Offset[2])
	if res.Rotation[0] != 0 || res.Rotation[1] != 0 {
		fmt.Fprintf(out, ", pitch %.4f yaw %.4f", res.Rotation[0], res.Rotation[1])
	}
	fmt.Fprintf(out, "  [%s at distance %.4f]\n", res.Target, res.Distance)
}

func printEntities(out io.Writer, entities []memory.EntityInfo) {
	fmt.Fprintln(out, "Scene")
	fmt.Fprintln(out, "-----")
	for _, e := range entities {
		fmt.Fprintf(out, "  %-12s %-9s pos (%9.4f, %9.4f, %9.4f)  rot (%8.3f, %8.3f, %8.3f)\n",
			e.Name, e.Kind,
			e.Position[0], e.Position[1], e.Position[2],
			e.Rotation[0], e.Rotation[1], e.Rotation[2])
	}
}

func printProjection(out io.Writer, ref host.ViewportRef, rows []screenRow) {
	fmt.Fprintf(out, "Viewport %s\n", ref)
	fmt.Fprintln(out, "--------")
	for _, r := range rows {
		if !r.Visible {
			fmt.Fprintf(out, "  %-12s %-9s behind camera\n", r.Name, r.Kind)
			continue
		}
		fmt.Fprintf(out, "  %-12s %-9s screen (%8.2f, %8.2f)\n", r.Name, r.Kind, r.Screen.X, r.Screen.Y)
	}
}
