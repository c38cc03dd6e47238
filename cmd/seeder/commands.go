package main

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
	"github.com/unclebandit/prospecting-dashboard/internal/model"
	"github.com/unclebandit/prospecting-dashboard/internal/repository"
	"github.com/unclebandit/prospecting-dashboard/internal/service"
)

//go:embed data/cities.csv
var defaultCities []byte

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := db.Migrate(cmd.Context(), ctx.conn, ctx.dialect); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", ctx.dialect)
			return nil
		},
	}
}

func newSeedCitiesCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-cities",
		Short: "Load state,city pairs from a CSV file (built-in list by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var src io.Reader = bytes.NewReader(defaultCities)
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			pairs, err := readCities(src)
			if err != nil {
				return err
			}

			repo := &repository.CityRepository{DB: ctx.conn, Dialect: ctx.dialect}
			added := 0
			for _, p := range pairs {
				ok, err := repo.Add(cmd.Context(), p.State, p.City)
				if err != nil {
					return fmt.Errorf("add %s/%s: %w", p.State, p.City, err)
				}
				if ok {
					added++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d cities (%d already present)\n", added, len(pairs)-added)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV with a state,city header")
	return cmd
}

// readCities parses "state,city" rows; the header row is optional.
func readCities(r io.Reader) ([]model.City, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var out []model.City
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		state := strings.ToUpper(strings.TrimSpace(rec[0]))
		city := strings.TrimSpace(rec[1])
		if line == 1 && state == "STATE" {
			continue
		}
		if state == "" || city == "" {
			return nil, fmt.Errorf("line %d: state and city are required", line)
		}
		out = append(out, model.City{State: state, City: city})
	}
}

func newAddUserCommand(ctx *commandContext) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create a dashboard login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("SEEDER_PASSWORD")
			}
			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
				return errors.New("--name and --email are required")
			}
			hash, err := service.HashPassword(password)
			if err != nil {
				return err
			}

			repo := &repository.UserRepository{DB: ctx.conn, Dialect: ctx.dialect}
			u := &model.User{Name: strings.TrimSpace(name), Email: email, PasswordHash: hash}
			if err := repo.Create(cmd.Context(), u); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s>\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (or SEEDER_PASSWORD)")
	return cmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List dashboard logins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo := &repository.UserRepository{DB: ctx.conn, Dialect: ctx.dialect}
			users, err := repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{strconv.Itoa(u.ID), u.Name, u.Email})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Email"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

func newCampaignsCommand(ctx *commandContext) *cobra.Command {
	var status, kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Show campaigns as a table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *model.Status
			if status != "" && status != "all" {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = &s
			}

			repo := &repository.CampaignRepository{DB: ctx.conn, Dialect: ctx.dialect}
			campaigns, total, err := repo.ListCampaigns(cmd.Context(), 0, limit, kind, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Kind", "Company type", "City", "Started", "Leads"},
				campaignRows(campaigns),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d campaigns\n", len(campaigns), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "active, paused, stopped or all")
	cmd.Flags().StringVar(&kind, "kind", "", "only this campaign kind")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func campaignRows(campaigns []*model.Campaign) [][]string {
	rows := make([][]string, 0, len(campaigns))
	for _, c := range campaigns {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			c.Status.String(),
			c.Kind,
			c.CompanyType,
			c.City + "/" + c.State,
			humanize.Time(c.StartedAt),
			humanize.Comma(int64(c.LeadsReached)),
		})
	}
	return rows
}
