// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/kbo"
	"github.com/pdiddy/faillink/pkg/types"
)

var enterpriseCmd = &cobra.Command{
	Use:   "enterprise <cbe>",
	Short: "Look up an enterprise in the Crossroads Bank for Enterprises",
	Long: `Enterprise reads the register details of one enterprise: name, juridical
situation and form, address, capital, activities, and the people holding
functions. Credentials come from .secrets/kbo-username and
.secrets/kbo-password, or the kbo.username and kbo.password settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnterprise,
}

func init() {
	enterpriseCmd.Flags().String("lang", "", "response language: fr, nl, de, or en (default fr)")
	enterpriseCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	enterpriseCmd.Flags().Bool("store", false, "save the details to the local database")
	enterpriseCmd.Flags().String("format", formatText, "output format: text, json, or yaml")

	rootCmd.AddCommand(enterpriseCmd)
}

func runEnterprise(cmd *cobra.Command, args []string) error {
	number, err := enterpriseNumber(args[0])
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.KBO.Language = lang
	}
	if cmd.Flags().Changed("timeout") {
		cfg.KBO.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	ctx := cmd.Context()

	e, err := kbo.NewClient(nil, cfg.KBO).ReadEnterprise(ctx, number)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("store"); save {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.UpsertEnterprise(ctx, 0, *e); err != nil {
			return err
		}
	}

	if format != formatText {
		return encode(os.Stdout, e, format)
	}
	printEnterprise(os.Stdout, e)
	return nil
}

func printEnterprise(w io.Writer, e *types.Enterprise) {
	fmt.Fprintf(w, "%s  %s\n", cbe.Format(e.Number), e.Name)
	field := func(label, v string) {
		if v != "" {
			fmt.Fprintf(w, "  %-20s %s\n", label+":", v)
		}
	}
	field("Situation", e.JuridicalSituation)
	field("Form", e.JuridicalForm)
	field("Type", e.Type)
	if e.Status != nil {
		field("Status", e.Status.Description)
	}
	if e.Address != nil {
		a := e.Address
		field("Address", fmt.Sprintf("%s %s, %s %s", a.Street, a.HouseNumber, a.Zipcode, a.Municipality))
	}
	if e.Capital != nil {
		field("Capital", e.Capital.Amount+" "+e.Capital.Currency)
	}
	for _, act := range e.Activities {
		field("Activity", act.Code+" "+act.Description)
	}
	for _, f := range e.Functions {
		field("Function", fmt.Sprintf("%s: %s %s", f.Role, f.GivenName, f.Surname))
	}
}
