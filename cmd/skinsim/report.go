package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Faultbox/midgard-skin/internal/sim"
)

// printFrame writes a one-line frame summary.
func printFrame(w io.Writer, st sim.FrameStats) {
	fmt.Fprintf(w, "frame %4d  t=%7.1fms  closures=%d  transactions=%d  blends=%d\n",
		st.Frame, st.TimeMs, st.Closures, st.Transactions, st.Blends)
}

// printItems writes one row per render item, and optionally the packed
// cluster rows of skinned items for both draw paths.
func printItems(w io.Writer, items []sim.ItemSnapshot, clusters bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMESH\tPART\tSKINNED\tCAUTERIZED\tBOUND MIN\tBOUND MAX")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%t\t%t\t%s\t%s\n",
			it.ID, it.MeshIndex, it.PartIndex, it.Skinned, it.Cauterized,
			vec3(it.WorldBound.Min), vec3(it.WorldBound.Max))
	}
	tw.Flush()

	if !clusters {
		return
	}
	for _, it := range items {
		if !it.Skinned {
			continue
		}
		fmt.Fprintf(w, "\nitem %d clusters\n", it.ID)
		printClusters(w, "third-person", it.Draw)
		if it.Cauterized {
			printClusters(w, "first-person", it.FirstDraw)
		}
	}
}

func printClusters(w io.Writer, label string, d sim.DrawSnapshot) {
	if d.Clusters == nil {
		return
	}
	fmt.Fprintf(w, "  %s (v%d)\n", label, d.Version)
	for i, c := range d.Clusters {
		fmt.Fprintf(w, "    %2d  scale %s  real %s  dual %s\n", i, vec4(c[0]), vec4(c[1]), vec4(c[2]))
	}
}

func vec3(v [3]float32) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}

func vec4(v [4]float32) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", v[0], v[1], v[2], v[3])
}
