package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/models"
)

const dateLayout = "2006-01-02"

// AddEntry prompts for a beer and records it in the journal.
func (a *App) AddEntry(ctx context.Context) error {
	var e models.JournalEntry
	var err error

	if e.BeerName, err = GetSimpleText(a.reader, "Beer name:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if e.Brewery, err = GetSimpleText(a.reader, "Brewery:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if e.Style, err = GetSimpleText(a.reader, "Style:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if e.ABV, err = GetFloat(a.reader, "ABV, %:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	rating, err := GetFloat(a.reader, "Rating (0-5):", a.out)
	if err != nil {
		return a.fail(ctx, "input error", err)
	}
	e.Rating = models.Rating(rating)
	if e.ServingType, err = GetSimpleText(a.reader, "Served (draft, bottle, can):", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if e.Location, err = GetSimpleText(a.reader, "Where:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if e.Notes, err = GetSimpleText(a.reader, "Notes:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	e.DrankAt = time.Now().UTC()

	created, err := a.journal.Create(ctx, e)
	if err != nil {
		return a.fail(ctx, "Entry not saved", err)
	}
	printlnFn("Entry saved:", created.ID)
	return nil
}

// AddBar prompts for a bar visit and records it.
func (a *App) AddBar(ctx context.Context) error {
	var b models.Bar
	var err error

	if b.Name, err = GetSimpleText(a.reader, "Bar name:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if b.City, err = GetSimpleText(a.reader, "City:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if b.Country, err = GetSimpleText(a.reader, "Country:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	rating, err := GetFloat(a.reader, "Rating (0-5):", a.out)
	if err != nil {
		return a.fail(ctx, "input error", err)
	}
	b.Rating = models.Rating(rating)
	if b.FavoriteBeers, err = GetList(a.reader, "Favourite beers (comma separated):", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	if b.Notes, err = GetSimpleText(a.reader, "Notes:", a.out); err != nil {
		return a.fail(ctx, "input error", err)
	}
	b.VisitedAt = time.Now().UTC()

	created, err := a.bars.Create(ctx, b)
	if err != nil {
		return a.fail(ctx, "Bar not saved", err)
	}
	printlnFn("Bar saved:", created.ID)
	return nil
}

// List prints the journal, most recent first.
func (a *App) List(ctx context.Context) error {
	entries, err := a.journal.List(ctx)
	if err != nil {
		return a.fail(ctx, "error listing entries", err)
	}
	if len(entries) == 0 {
		printlnFn("No entries yet")
		return nil
	}
	for _, e := range entries {
		printlnFn(formatEntry(e))
	}
	return nil
}

// Bars prints visited bars, most recent first.
func (a *App) Bars(ctx context.Context) error {
	bars, err := a.bars.List(ctx)
	if err != nil {
		return a.fail(ctx, "error listing bars", err)
	}
	if len(bars) == 0 {
		printlnFn("No bars yet")
		return nil
	}
	for _, b := range bars {
		printlnFn(formatBar(b))
	}
	return nil
}

// Delete removes a journal entry or a bar by id.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: delete <id>")
		return nil
	}
	id := args[0]

	err := a.journal.Delete(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		err = a.bars.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("Nothing found with id", id)
			return err
		}
		return a.fail(ctx, "error deleting", err)
	}
	printlnFn("Deleted", id)
	return nil
}

func formatEntry(e models.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s", e.ID, e.DrankAt.Local().Format(dateLayout), e.BeerName)
	if e.Brewery != "" {
		fmt.Fprintf(&b, " (%s)", e.Brewery)
	}
	if e.ABV > 0 {
		fmt.Fprintf(&b, " %.1f%%", e.ABV)
	}
	fmt.Fprintf(&b, "  %s", e.Rating.Stars())
	if e.Dirty() {
		b.WriteString("  *")
	}
	return b.String()
}

func formatBar(bar models.Bar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s", bar.ID, bar.VisitedAt.Local().Format(dateLayout), bar.Name)
	if place := strings.Trim(bar.City+", "+bar.Country, ", "); place != "" {
		fmt.Fprintf(&b, " (%s)", place)
	}
	fmt.Fprintf(&b, "  %s", bar.Rating.Stars())
	if bar.Dirty() {
		b.WriteString("  *")
	}
	return b.String()
}
