package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leaflet/internal/pagename"
	"leaflet/internal/views"
)

var (
	linksBackward bool
	linksBoth     bool
	linksFloating bool
)

var linksCmd = &cobra.Command{
	Use:   "links <page>",
	Short: "List the links of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		lv := views.NewLinks(ix.DB())

		if linksFloating {
			links, err := lv.Floating(args[0])
			if err != nil {
				return err
			}
			for _, l := range links {
				fmt.Printf("%s\t%s\t(%s)\n", l.Source, l.Target, l.HRef)
			}
			return nil
		}

		name, err := pagename.ValidName(args[0])
		if err != nil {
			return err
		}
		dir := views.DirForward
		if linksBackward {
			dir = views.DirBackward
		}
		if linksBoth {
			dir = views.DirBoth
		}
		links, err := lv.List(name, dir)
		if err != nil {
			return err
		}
		for _, l := range links {
			fmt.Printf("%s\t%s\t(%s)\n", l.Source, l.Target, l.HRef)
		}
		return nil
	},
}

func init() {
	linksCmd.Flags().BoolVarP(&linksBackward, "backward", "b", false, "list incoming links instead")
	linksCmd.Flags().BoolVar(&linksBoth, "both", false, "list links in both directions")
	linksCmd.Flags().BoolVar(&linksFloating, "floating", false, "treat the argument as a basename and list floating links anchored on it")
	rootCmd.AddCommand(linksCmd)
}
