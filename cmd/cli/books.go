package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/and161185/libdesk/internal/model"
)

type pageFlags struct {
	search string
	page   int
	size   int
}

func (p *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.search, "search", "s", "", "search text")
	cmd.Flags().IntVar(&p.page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.size, "size", 10, "page size")
}

func (p pageFlags) request() model.PageRequest {
	return model.PageRequest{Search: p.search, PageNum: p.page, PageSize: p.size}
}

func pageFooter[T any](a *app, p model.Page[T]) {
	fmt.Fprintf(a.out, "%d-%d of %d (page %d)\n", p.StartRecord, p.EndRecord, p.Total, p.TotalPages)
}

func bookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Browse and manage the catalogue"}
	cmd.AddCommand(bookListCmd(a), bookGetCmd(a), bookUpdateCmd(a), bookDeleteCmd(a), bookAddCmd(a))
	return cmd
}

func bookListCmd(a *app) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			page, err := a.client.ListBooks(cmd.Context(), pf.request())
			if err != nil {
				return err
			}
			if a.flags.json {
				printJSON(a.out, page)
				return nil
			}
			rows := make([][]string, 0, len(page.Data))
			for _, b := range page.Data {
				rows = append(rows, []string{b.ID, b.Title, b.Author, b.Price.String(), strconv.Itoa(b.Quantity)})
			}
			table(a.out, "ID\tTITLE\tAUTHOR\tPRICE\tQTY", rows)
			pageFooter(a, page)
			return nil
		},
	}
	pf.bind(cmd)
	return cmd
}

func bookGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			b, err := a.client.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printBook(a, b)
			return nil
		},
	}
}

func printBook(a *app, b model.Book) {
	if a.flags.json {
		printJSON(a.out, b)
		return
	}
	fmt.Fprintf(a.out, "%s\n  by %s\n  price:     %s\n  barcode:   %s\n  published: %d\n  quantity:  %d\n",
		b.Title, b.Author, b.Price, b.BarcodeNo, b.PublishedYear, b.Quantity)
}

func bookUpdateCmd(a *app) *cobra.Command {
	var (
		title, author, price, barcode, image string
		year, quantity                       int
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.ManageBooks {
				return denied("edit books")
			}
			b, err := a.client.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("title") {
				b.Title = title
			}
			if f.Changed("author") {
				b.Author = author
			}
			if f.Changed("price") {
				if b.Price, err = model.ParseMinor(price); err != nil {
					return err
				}
				if b.Price < 0 {
					return fmt.Errorf("price must not be negative")
				}
			}
			if f.Changed("barcode") {
				b.BarcodeNo = barcode
			}
			if f.Changed("image") {
				b.ImageURL = image
			}
			if f.Changed("year") {
				b.PublishedYear = year
			}
			if f.Changed("quantity") {
				b.Quantity = quantity
			}
			updated, err := a.client.UpdateBook(cmd.Context(), args[0], b)
			if err != nil {
				return err
			}
			printBook(a, updated)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "title")
	f.StringVar(&author, "author", "", "author")
	f.StringVar(&price, "price", "", "price, e.g. 45.90")
	f.StringVar(&barcode, "barcode", "", "barcode number")
	f.StringVar(&image, "image", "", "cover image URL")
	f.IntVar(&year, "year", 0, "published year")
	f.IntVar(&quantity, "quantity", 0, "copies on the shelf")
	return cmd
}

func bookDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.DeleteBooks {
				return denied("delete books")
			}
			if !yes {
				ok, err := a.confirm("Are you sure you want to delete this book?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := a.client.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Book deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func bookAddCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add books from a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !caps.ManageBooks {
				return denied("add books")
			}
			raw, err := readAll(a.in, path)
			if err != nil {
				return err
			}
			var books []model.Book
			if err := json.Unmarshal(raw, &books); err != nil {
				return fmt.Errorf("decode books: %w", err)
			}
			if len(books) == 0 {
				return fmt.Errorf("no books in %s", path)
			}
			if err := a.client.AddBooks(cmd.Context(), books); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added %d books\n", len(books))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "-", "JSON file, - for stdin")
	return cmd
}
