package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hrygo/finder/plugin/osm"
	"github.com/hrygo/finder/server"
	"github.com/hrygo/finder/server/service/finder"
	"github.com/hrygo/finder/server/timezone"
)

func newSearchCommand() *cobra.Command {
	var req finder.SearchRequest
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search restaurants in a city and show which are open",
		Example: `  finder search --country USA --state Oregon --city Portland --open-now
  finder search --country France --city Lyon --filter 'cuisine.contains("pizza")'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			storeInstance, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			searchCache := server.NewSearchCache(ctx, p)
			defer searchCache.Close()

			location, _ := timezone.ParseTimezone(p.Timezone)
			svc := finder.NewService(finder.Config{
				Store: storeInstance,
				Locator: osm.NewClient(osm.Config{
					NominatimURL: p.NominatimURL,
					OverpassURL:  p.OverpassURL,
					UserAgent:    p.UserAgent,
				}),
				Cache:    searchCache,
				Location: location,
			})
			result, err := svc.Search(ctx, req)
			if err != nil {
				return err
			}
			return printRestaurants(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&req.Country, "country", "", "country (required)")
	cmd.Flags().StringVar(&req.State, "state", "", "state or region")
	cmd.Flags().StringVar(&req.City, "city", "", "city (required)")
	cmd.Flags().StringVar(&req.Cuisine, "cuisine", "", "cuisine substring, e.g. pizza")
	cmd.Flags().BoolVar(&req.OpenNow, "open-now", false, "only show restaurants open now")
	cmd.Flags().BoolVar(&req.HideUnnamed, "hide-unnamed", false, "hide restaurants without a name")
	cmd.Flags().StringVar(&req.Sort, "sort", "", "sort order, e.g. name-asc or hours-desc")
	cmd.Flags().StringVar(&req.Filter, "filter", "", "CEL filter over name, cuisine, address, state and open")
	return cmd
}

func printRestaurants(out io.Writer, result *finder.SearchResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCUISINE\tSTATUS\tHOURS\tADDRESS")
	for _, r := range result.Restaurants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Cuisine, r.Badge, r.OpeningHours, r.Address)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, result.Message)
	return err
}
