package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leaflet/internal/views"
)

var tagsIntersect bool

var tagsCmd = &cobra.Command{
	Use:   "tags [tag...]",
	Short: "List tags, or the pages carrying the given tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ix, err := openIndex()
		if err != nil {
			return err
		}
		defer ix.Close()

		tv := views.NewTags(ix.DB())

		if len(args) == 0 {
			tags, err := tv.All()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Println(t.Name)
			}
			return nil
		}

		if tagsIntersect {
			tags, err := tv.Intersecting(args...)
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Println(t.Name)
			}
			return nil
		}

		pages, err := tv.Pages(args...)
		if err != nil {
			return err
		}
		for _, p := range pages {
			fmt.Println(p.Name)
		}
		return nil
	},
}

func init() {
	tagsCmd.Flags().BoolVar(&tagsIntersect, "intersect", false, "list tags co-occurring with the given ones instead of pages")
	rootCmd.AddCommand(tagsCmd)
}
