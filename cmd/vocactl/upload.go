package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/application"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/logging"
)

type uploadFlags struct {
	course      string
	day         string
	conflict    string
	enrich      bool
	noPronounce bool
}

func newUploadCmd() *cobra.Command {
	var f uploadFlags
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a vocabulary file into a course day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := core.ParseDayName(f.day)
			if err != nil {
				return err
			}
			conflict, err := core.ParseConflictPolicy(f.conflict)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			ctx := cmd.Context()
			app, err := application.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := app.Service.StartUpload(ctx, core.UploadRequest{
				Course:    f.course,
				Day:       day,
				Source:    core.Source{Kind: core.SourceFile, Name: filepath.Base(args[0]), Data: data},
				Conflict:  conflict,
				Pronounce: !f.noPronounce,
				Enrich:    f.enrich,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			progress, err := app.Service.SubscribeProgress(id)
			if err != nil {
				return err
			}
			last := core.UploadPhase("")
			for p := range progress {
				if p.Phase != last {
					fmt.Fprintf(out, "%-12s words=%d errors=%d\n", p.Phase, p.Words, p.Errors)
					last = p.Phase
				}
			}

			res, err := app.Service.UploadResult(ctx, id)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			fmt.Fprintf(out, "%s %s: %s, %d inserted, %d pronounced, %d enriched in %s\n",
				res.Course, res.DayName, res.Phase, res.Inserted, res.Pronounced, res.Enriched, res.Duration)

			if res.Phase != core.PhaseComplete && res.Phase != core.PhaseSkipped {
				return fmt.Errorf("upload %s: %s", res.Phase, res.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.course, "course", "", "Course ID (CSAT, IELTS, TOEFL, TOEIC, COLLOCATIONS)")
	cmd.Flags().StringVar(&f.day, "day", "", "Target day, e.g. Day3")
	cmd.Flags().StringVar(&f.conflict, "conflict", "overwrite", "When the day exists: overwrite, skip or fail")
	cmd.Flags().BoolVar(&f.enrich, "enrich", false, "Generate missing examples and translations")
	cmd.Flags().BoolVar(&f.noPronounce, "no-pronounce", false, "Skip IPA lookups")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}
