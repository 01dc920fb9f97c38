package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-skin/internal/assets"
	"github.com/Faultbox/midgard-skin/internal/logger"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the joints and meshes of the configured avatar",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		avatar, err := loadAvatar(cfg)
		if err != nil {
			return err
		}
		printAvatar(cmd.OutOrStdout(), avatar)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printAvatar(w io.Writer, a *assets.Avatar) {
	skel := a.Skeleton
	fmt.Fprintf(w, "avatar %s: %d joints, %d meshes, animated=%t\n",
		a.Name, skel.JointCount(), len(a.Geometry.Meshes), skel.HasAnimation())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOINT\tNAME\tREST POSITION\tFLAGS")
	for i := 0; i < skel.JointCount(); i++ {
		flags := ""
		if i == a.Geometry.NeckJointIndex {
			flags += "anchor "
		}
		if a.CauterizeBones.Contains(i) {
			flags += "cauterized"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, skel.JointName(i), vec3(skel.BindPose(i).Translation), flags)
	}
	tw.Flush()

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MESH\tNAME\tPARTS\tCLUSTERS\tBLEND SHAPES")
	for i, m := range a.Geometry.Meshes {
		if m == nil {
			fmt.Fprintf(tw, "%d\t-\t0\t0\t0\n", i)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i, m.Name, m.NumParts, len(m.Clusters), m.BlendShapes)
	}
	tw.Flush()
}
