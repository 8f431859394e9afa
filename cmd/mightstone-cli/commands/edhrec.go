package commands

import (
	"mightstone-backend/internal/service"

	"github.com/spf13/cobra"
)

var (
	bracket       string
	budget        string
	identity      string
	hydrate       bool
	includeImages bool
)

func init() {
	averageCmd.Flags().StringVarP(&bracket, "bracket", "b", "", "Bracket number or name, optionally with a budget/expensive suffix.")
	averageCmd.Flags().BoolVar(&hydrate, "hydrate", false, "Look up Scryfall ids for every card.")
	resolveCmd.Flags().StringVarP(&bracket, "bracket", "b", "", "Bracket number or name, optionally with a budget/expensive suffix.")
	themeCmd.Flags().StringVarP(&identity, "identity", "i", "", "Color identity code, label or slug.")
	themeCmd.Flags().BoolVar(&hydrate, "hydrate", false, "Look up Scryfall ids for every card.")
	themeCmd.Flags().BoolVar(&includeImages, "images", false, "Include image urls when hydrating.")
	summaryCmd.Flags().StringVar(&budget, "budget", "", "budget or expensive.")

	rootCmd.AddCommand(tagsCmd, averageCmd, resolveCmd, themeCmd, summaryCmd, bracketsCmd)
}

// fail renders err and makes the command exit non-zero.
func fail(cmd *cobra.Command, err error) error {
	renderError(cmd.ErrOrStderr(), err)
	cmd.SilenceUsage = true
	return err
}

var tagsCmd = &cobra.Command{
	Use:   "tags <commander>",
	Short: "Prints the themes of a commander with their deck counts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := instance.Service.CommanderTags(cmd.Context(), args[0])
		if err != nil {
			return fail(cmd, err)
		}
		renderTags(cmd.OutOrStdout(), tags)
		return nil
	},
}

var averageCmd = &cobra.Command{
	Use:   "average <commander> [--bracket <bracket>] [--hydrate]",
	Short: "Prints the average deck of a commander for exactly one bracket.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deck, err := instance.Service.AverageDeck(cmd.Context(), service.AverageDeckRequest{
			Commander:      args[0],
			Bracket:        bracket,
			HydrateOptions: service.HydrateOptions{Hydrate: hydrate},
		})
		if err != nil {
			return fail(cmd, err)
		}
		renderDeck(cmd.OutOrStdout(), deck)
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <commander> [--bracket <bracket>]",
	Short: "Prints the average deck url serving a bracket without fetching the deck.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := instance.Service.Resolve(cmd.Context(), args[0], bracket)
		if err != nil {
			return fail(cmd, err)
		}
		renderResolution(cmd.OutOrStdout(), res)
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme <tag> [--identity <colors>] [--hydrate]",
	Short: "Prints the card collections of a theme page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := instance.Service.Theme(cmd.Context(), service.ThemeRequest{
			Tag:      args[0],
			Identity: identity,
			HydrateOptions: service.HydrateOptions{
				Hydrate:       hydrate,
				IncludeImages: includeImages,
			},
		})
		if err != nil {
			return fail(cmd, err)
		}
		renderTheme(cmd.OutOrStdout(), page)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <commander> [--budget budget|expensive]",
	Short: "Prints the card categories of a commander page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := instance.Service.CommanderSummary(cmd.Context(), args[0], budget)
		if err != nil {
			return fail(cmd, err)
		}
		renderSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

var bracketsCmd = &cobra.Command{
	Use:   "brackets",
	Short: "Prints every accepted bracket identifier.",
	Run: func(cmd *cobra.Command, args []string) {
		renderBrackets(cmd.OutOrStdout(), instance.Service.Brackets())
	},
}
