package cli

import (
	"github.com/spf13/cobra"

	"github.com/aidanlsb/shopctl/internal/config"
	"github.com/aidanlsb/shopctl/internal/shellquote"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Fetch the next page of the last listing",
	Long: `Re-runs the command printed as "Next page:" by the last list verb.

The command is remembered in state.toml next to the config file and is
cleared once a listing reaches its last page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := config.LoadState(getStatePath())
		if err != nil {
			return &codedError{code: ErrConfigInvalid, err: err}
		}
		words := shellquote.Split(state.NextPage)
		if len(words) > 0 && words[0] == "shopctl" {
			words = words[1:]
		}
		if len(words) == 0 {
			return newCodedError(ErrNoNextPage, "no next page: run a list command first")
		}
		resource, rest := words[0], words[1:]
		if !registered(resource) {
			return newCodedError(ErrNoNextPage, "remembered command %q is not a resource command", state.NextPage)
		}
		log.Debug().Str("command", state.NextPage).Msg("fetching next page")
		return runResource(cmd, resource, rest)
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)
}
