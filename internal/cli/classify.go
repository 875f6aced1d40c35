package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// KeyClass is the classification of one locator key.
type KeyClass struct {
	Key   string `json:"key"`
	Class string `json:"class"` // "interactive" | "action_only"
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	var keywords []string

	cmd := &cobra.Command{
		Use:   "classify <key>...",
		Short: "Classify locator keys as interactive or action-only",
		Long: `Classify locator keys with the configured deny keywords. A key containing
any deny keyword (case-insensitive) is action-only and is clicked; every
other key is interactive and is filled from the data row.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cfg, err := rootOpts.settings()
			if err != nil {
				return formatter.fail(ExitCommandError, &configError{err: err}, nil)
			}
			if cmd.Flags().Changed("deny") {
				cfg.DenyKeywords = keywords
			}
			classifier := cfg.Classifier()
			formatter.VerboseLog("Deny keywords: %v", classifier.Keywords())

			result := make([]KeyClass, len(args))
			for i, key := range args {
				result[i] = KeyClass{Key: key, Class: classifier.Classify(key).String()}
			}

			if formatter.Format == "json" {
				return formatter.Success(result)
			}
			for _, kc := range result {
				fmt.Fprintf(formatter.Writer, "%s\t%s\n", kc.Key, kc.Class)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&keywords, "deny", nil, "deny keywords, replacing the configured set")

	return cmd
}
