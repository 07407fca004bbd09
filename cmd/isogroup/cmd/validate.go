package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate input files",
	Long: `Validate that input files are properly formatted and that every spectrum
has finite, ascending m/z values and usable intensities.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spectra, err := readAll(args, inputFormat, msLevel)
		if err != nil {
			return err
		}
		return validateSpectra(cmd.OutOrStdout(), spectra)
	},
}

// validateSpectra reports the status of every spectrum and fails when any
// spectrum is invalid.
func validateSpectra(w io.Writer, spectra []*core.Spectrum) error {
	invalid := 0
	for _, spec := range spectra {
		if err := spec.Validate(); err != nil {
			fmt.Fprintf(w, "INVALID\t%s\t%v\n", spec.Label(), err)
			invalid++
			continue
		}
		fmt.Fprintf(w, "OK\t%s\t%d peaks\n", spec.Label(), spec.Len())
	}

	fmt.Fprintf(w, "\nValidated: %d spectra\n", len(spectra))
	if invalid > 0 {
		return fmt.Errorf("%d of %d spectra are invalid", invalid, len(spectra))
	}
	return nil
}
