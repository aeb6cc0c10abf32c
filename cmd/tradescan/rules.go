package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tradescan/internal/engine"
	"github.com/verte-zerg/tradescan/internal/price"
)

var (
	profilesServer string
	rulesProfile   string
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE:  runProfilesCmd,
	}
	cmd.Flags().StringVar(&profilesServer, "server", "", "show which profile serves this address")
	return cmd
}

func runProfilesCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if profilesServer != "" {
		if _, err := eng.UseServer(profilesServer); err != nil {
			return fmt.Errorf("failed to resolve server: %w", err)
		}
	}
	out := cmd.OutOrStdout()
	lines := []string{a.msgs.Get("profile.header")}
	for _, name := range eng.Profiles() {
		key := "profile.line"
		if name == eng.ActiveProfile() {
			key = "profile.active.line"
		}
		lines = append(lines, a.msgs.Format(key, map[string]string{"profile": name}))
	}
	if profilesServer != "" {
		lines = append(lines, a.msgs.Format("profile.server", map[string]string{
			"server":  profilesServer,
			"profile": eng.ActiveProfile(),
		}))
	}
	return writeLines(out, lines)
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage price rules",
	}
	cmd.PersistentFlags().StringVar(&rulesProfile, "profile", "", "profile to edit (default: default-profile)")
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE:  runRulesListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <max-price> <item>",
		Short: "Add or replace a rule",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRulesAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <item>",
		Short: "Remove a rule",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRulesRemoveCmd,
	})
	return cmd
}

// openRules loads the app and an engine switched to the --profile target.
func openRules(cmd *cobra.Command) (*app, *engine.Engine, error) {
	a, err := loadApp(cmd, true)
	if err != nil {
		return nil, nil, err
	}
	eng, err := a.newEngine()
	if err != nil {
		a.close()
		return nil, nil, err
	}
	if rulesProfile != "" {
		if err := eng.SetActiveProfile(rulesProfile); err != nil {
			eng.Close()
			a.close()
			return nil, nil, err
		}
	}
	return a, eng, nil
}

func runRulesListCmd(cmd *cobra.Command, _ []string) error {
	a, eng, err := openRules(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer eng.Close()

	profile := eng.ActiveProfile()
	list := eng.Rules()
	if len(list) == 0 {
		return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("rule.list.empty", map[string]string{"profile": profile})})
	}
	lines := []string{a.msgs.Format("rule.list.header", map[string]string{"profile": profile})}
	for _, r := range list {
		lines = append(lines, a.msgs.Format("rule.list.line", map[string]string{
			"item":  r.Key.Display(),
			"price": price.Format(r.MaxPrice),
		}))
	}
	return writeLines(cmd.OutOrStdout(), lines)
}

func runRulesAddCmd(cmd *cobra.Command, args []string) error {
	a, eng, err := openRules(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer eng.Close()

	rule, replaced, err := eng.AddRule(strings.Join(args[1:], " "), args[0])
	if err != nil {
		if errors.Is(err, price.ErrInvalid) {
			return fmt.Errorf("invalid max price %q", args[0])
		}
		return err
	}
	if err := a.save(eng); err != nil {
		return err
	}
	key := "rule.added"
	if replaced {
		key = "rule.replaced"
	}
	return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format(key, map[string]string{
		"item":    rule.Key.Display(),
		"price":   price.Format(rule.MaxPrice),
		"profile": eng.ActiveProfile(),
	})})
}

func runRulesRemoveCmd(cmd *cobra.Command, args []string) error {
	a, eng, err := openRules(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	defer eng.Close()

	item := strings.Join(args, " ")
	removed, err := eng.RemoveRule(item)
	if err != nil {
		return err
	}
	vars := map[string]string{"item": item, "profile": eng.ActiveProfile()}
	if !removed {
		return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("rule.missing", vars)})
	}
	if err := a.save(eng); err != nil {
		return err
	}
	return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("rule.removed", vars)})
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Manage the session search list",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tracked descriptors",
		Args:  cobra.NoArgs,
		RunE:  runSearchListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <item>",
		Short: "Track a descriptor during sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <item>",
		Short: "Stop tracking a descriptor",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchRemoveCmd,
	})
	return cmd
}

func runSearchListCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	terms := eng.SearchTerms()
	if len(terms) == 0 {
		return writeLines(cmd.OutOrStdout(), []string{a.msgs.Get("search.list.empty")})
	}
	lines := []string{a.msgs.Get("search.list.header")}
	for _, t := range terms {
		lines = append(lines, a.msgs.Format("search.list.line", map[string]string{"item": t.Display()}))
	}
	return writeLines(cmd.OutOrStdout(), lines)
}

func runSearchAddCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	key, added, err := eng.AddSearchTerm(strings.Join(args, " "))
	if err != nil {
		return err
	}
	vars := map[string]string{"item": key.Display()}
	if !added {
		return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("search.exists", vars)})
	}
	if err := a.save(eng); err != nil {
		return err
	}
	return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("search.added", vars)})
}

func runSearchRemoveCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	item := strings.Join(args, " ")
	vars := map[string]string{"item": item}
	if !eng.RemoveSearchTerm(item) {
		return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("search.missing", vars)})
	}
	if err := a.save(eng); err != nil {
		return err
	}
	return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("search.removed", vars)})
}

func newPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <raw>",
		Short: "Parse and format a price",
		Args:  cobra.ExactArgs(1),
		RunE:  runPriceCmd,
	}
}

func runPriceCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := price.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid price %q", args[0])
	}
	return writeLines(cmd.OutOrStdout(), []string{a.msgs.Format("price.parsed", map[string]string{
		"raw":       args[0],
		"value":     strconv.FormatFloat(v, 'f', -1, 64),
		"formatted": price.Format(v),
	})})
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
