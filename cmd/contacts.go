package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rolocard/enrich-cli/internal/model"
)

var contactsOwner string

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Browse stored contacts",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts for an owner",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		contacts, err := st.ListContacts(ctx, contactsOwner)
		if err != nil {
			return eris.Wrap(err, "contacts list")
		}

		if len(contacts) == 0 {
			fmt.Fprintln(os.Stderr, "No contacts found.")
			return nil
		}

		formatContactsList(os.Stdout, contacts)
		return nil
	},
}

var contactsShowCmd = &cobra.Command{
	Use:   "show <contact-id>",
	Short: "Show full details of a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		contact, err := st.GetContact(ctx, contactsOwner, args[0])
		if err != nil {
			return eris.Wrap(err, "contacts show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(contact)
	},
}

var contactsDeleteCmd = &cobra.Command{
	Use:   "delete <contact-id>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteContact(ctx, contactsOwner, args[0]); err != nil {
			return eris.Wrap(err, "contacts delete")
		}
		fmt.Fprintf(os.Stdout, "Deleted contact %s\n", args[0])
		return nil
	},
}

func formatContactsList(w io.Writer, contacts []model.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCOMPANY\tSCORE\tSOURCES")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
			c.ID, c.Name, c.Email, c.Company, c.ConfidenceScore,
			len(c.EnrichedData.Sources),
		)
	}
	_ = tw.Flush()
}

func init() {
	contactsCmd.PersistentFlags().StringVar(&contactsOwner, "owner", "", "owner user id (required)")
	_ = contactsCmd.MarkPersistentFlagRequired("owner")
	contactsCmd.AddCommand(contactsListCmd)
	contactsCmd.AddCommand(contactsShowCmd)
	contactsCmd.AddCommand(contactsDeleteCmd)
	rootCmd.AddCommand(contactsCmd)
}
