package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liao/sommelier/internal/wine"
)

// profileFlags 命令行上的口味档案，未设置的属性保持 nil
type profileFlags struct {
	sweetness int
	acidity   int
	body      int
	tannin    int
	minPrice  int
	maxPrice  int
	types     []string
	foods     []string
	dislikes  []string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.sweetness, "sweetness", 0, "preferred sweetness (1-5)")
	fs.IntVar(&f.acidity, "acidity", 0, "preferred acidity (1-5)")
	fs.IntVar(&f.body, "body", 0, "preferred body (1-5)")
	fs.IntVar(&f.tannin, "tannin", 0, "preferred tannin (1-5)")
	fs.IntVar(&f.minPrice, "min-price", 0, "lower price bound (KRW)")
	fs.IntVar(&f.maxPrice, "max-price", 0, "upper price bound (KRW)")
	fs.StringSliceVar(&f.types, "type", nil, "preferred wine types, e.g. 레드,화이트")
	fs.StringSliceVar(&f.foods, "food", nil, "preferred foods")
	fs.StringSliceVar(&f.dislikes, "dislike", nil, "disliked characteristics")
}

func (f *profileFlags) profile(cmd *cobra.Command) (wine.TasteProfile, error) {
	fs := cmd.Flags()
	set := func(name string, v int) *int {
		if !fs.Changed(name) {
			return nil
		}
		return wine.IntPtr(v)
	}

	p := wine.TasteProfile{
		PreferredSweetness:      set("sweetness", f.sweetness),
		PreferredAcidity:        set("acidity", f.acidity),
		PreferredBody:           set("body", f.body),
		PreferredTannin:         set("tannin", f.tannin),
		PreferredTypes:          f.types,
		PreferredFoods:          f.foods,
		DislikedCharacteristics: f.dislikes,
	}
	if fs.Changed("min-price") || fs.Changed("max-price") {
		r := wine.DefaultPriceRange()
		if fs.Changed("min-price") {
			r[0] = f.minPrice
		}
		if fs.Changed("max-price") {
			r[1] = f.maxPrice
		}
		p.PriceRange = &r
	}

	if err := p.Validate(); err != nil {
		return wine.TasteProfile{}, fmt.Errorf("invalid taste profile: %w", err)
	}
	return p, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func formatPrice(w wine.Record) string {
	if !w.HasPrice() {
		return "가격 정보 없음"
	}
	return fmt.Sprintf("%d원", w.PriceValue())
}
