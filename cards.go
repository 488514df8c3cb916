package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"easybingo/card"
	"easybingo/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new cards and optionally add them to the collection",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage the saved card collection",
}

var cardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every saved card",
	Args:  cobra.NoArgs,
	RunE:  runCardsList,
}

var cardsDeleteCmd = &cobra.Command{
	Use:   "delete <n>",
	Short: "Delete card n (1-based, as shown by list)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardsDelete,
}

var cardsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved card",
	Args:  cobra.NoArgs,
	RunE:  runCardsClear,
}

func init() {
	generateCmd.Flags().IntP("count", "n", 1, "number of cards to generate")
	generateCmd.Flags().Bool("save", false, "append the generated cards to the collection")
	generateCmd.Flags().Uint64("seed", 0, "random seed for reproducible cards (0 = random)")

	cardsCmd.AddCommand(cardsListCmd, cardsDeleteCmd, cardsClearCmd)
	rootCmd.AddCommand(generateCmd, cardsCmd)
}

func termWidth() int {
	w, _, err := term.GetSize(1)
	if err != nil {
		return 80
	}
	return w
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("count")
	save, _ := cmd.Flags().GetBool("save")
	seed, _ := cmd.Flags().GetUint64("seed")
	if n < 1 {
		return errors.New("--count must be at least 1")
	}

	cfg, st, closeStore, err := loadCards(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	src := rand.NewPCG(rand.Uint64(), rand.Uint64())
	if seed != 0 {
		src = rand.NewPCG(seed, seed)
	}
	cards := card.NewGenerator(rand.New(src)).GenerateN(n)

	loc := localizer(cfg)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderCards(cards, func(i int) string {
		return loc.T("ui.card", map[string]any{"Card": i + 1})
	}, nil, paletteFor(cfg.Theme), termWidth()))

	if !save {
		return nil
	}
	all, err := store.Append(cmd.Context(), st, cards...)
	if err != nil {
		return fmt.Errorf("save cards: %w", err)
	}
	fmt.Fprintf(out, "Saved %d card(s); collection now has %d.\n", len(cards), len(all))
	return nil
}

func runCardsList(cmd *cobra.Command, _ []string) error {
	cfg, st, closeStore, err := loadCards(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	cards, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}
	loc := localizer(cfg)
	out := cmd.OutOrStdout()
	if len(cards) == 0 {
		fmt.Fprintln(out, loc.T("ui.no_cards", nil))
		return nil
	}
	fmt.Fprintln(out, renderCards(cards, func(i int) string {
		return loc.T("ui.card", map[string]any{"Card": i + 1})
	}, nil, paletteFor(cfg.Theme), termWidth()))
	return nil
}

func runCardsDelete(cmd *cobra.Command, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 {
		return fmt.Errorf("invalid card number %q", args[0])
	}
	_, st, closeStore, err := loadCards(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	left, err := store.Delete(cmd.Context(), st, idx-1)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d; %d left.\n", idx, len(left))
	return nil
}

func runCardsClear(cmd *cobra.Command, _ []string) error {
	_, st, closeStore, err := loadCards(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.Save(cmd.Context(), nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Collection cleared.")
	return nil
}
