package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and restore cleaned datasets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Store the cleaned (and filtered) dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.frame()
			if err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.SaveSnapshot(cmd.Context(), f, a.datasetOptions().Reference)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tROWS\tREFERENCE\tSOURCE")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Rows,
					s.Reference.Format(time.DateOnly), s.Source)
			}
			return tw.Flush()
		},
	})

	var out string
	load := &cobra.Command{
		Use:   "load <id>",
		Short: "Write a stored snapshot back out as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := st.LoadSnapshot(cmd.Context(), args[0], a.datasetOptions())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return f.WriteCSV(cmd.OutOrStdout())
			}
			return writeFrame(f, out)
		},
	}
	load.Flags().StringVarP(&out, "out", "o", "", "CSV path (stdout by default)")
	cmd.AddCommand(load)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Str("id", args[0]).Msg("Snapshot deleted")
			return nil
		},
	})

	return cmd
}

func writeFrame(f *dataset.Frame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	log.Info().Str("path", path).Int("rows", f.Len()).Msg("Snapshot written")
	return file.Close()
}
