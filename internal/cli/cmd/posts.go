package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/quill/internal/cli/styles"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
)

func init() {
	var category string

	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse posts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, e *env, _ []string) error {
			return runPostsList(ctx, e, category)
		}),
	}
	listCmd.Flags().StringVar(&category, "category", "", "Only posts in this category (secure id)")

	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own posts",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, e *env, _ []string) error {
			posts, err := e.client.ListUserPosts(ctx)
			if err != nil {
				return err
			}
			return e.printPosts(posts)
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <secure_id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *env, args []string) error {
			return runPostsShow(ctx, e, args[0])
		}),
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts by title and content",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(ctx context.Context, e *env, args []string) error {
			posts, err := e.client.SearchPosts(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return e.printPosts(posts)
		}),
	}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE:  run(func(ctx context.Context, e *env, _ []string) error { return runCategories(ctx, e) }),
	}

	postsCmd.AddCommand(listCmd, mineCmd, showCmd, searchCmd)
	rootCmd.AddCommand(postsCmd, categoriesCmd)
}

func runPostsList(ctx context.Context, e *env, category string) error {
	var (
		posts []blogsdk.Post
		err   error
	)
	if category != "" {
		posts, err = e.client.ListPostsByCategory(ctx, category)
	} else {
		posts, err = e.client.ListPosts(ctx)
	}
	if err != nil {
		return err
	}
	return e.printPosts(posts)
}

func runPostsShow(ctx context.Context, e *env, secureID string) error {
	post, err := e.client.GetPost(ctx, secureID)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(post)
	}

	fmt.Fprintln(e.out, styles.Title.Render(post.Title))
	fmt.Fprintln(e.out, styles.Subtle.Render(postByline(*post)))
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, post.Content)
	return nil
}

func runCategories(ctx context.Context, e *env) error {
	cats, err := e.client.ListCategories(ctx)
	if err != nil {
		return err
	}
	if e.json {
		return e.printJSON(cats)
	}
	if len(cats) == 0 {
		fmt.Fprintln(e.out, styles.Subtle.Render("No categories."))
		return nil
	}
	for _, c := range cats {
		fmt.Fprintf(e.out, "%s  %s\n", c.Name, styles.Subtle.Render(c.SecureID))
	}
	return nil
}

func (e *env) printPosts(posts []blogsdk.Post) error {
	if e.json {
		return e.printJSON(posts)
	}
	if len(posts) == 0 {
		fmt.Fprintln(e.out, styles.Subtle.Render("No posts found."))
		return nil
	}
	for _, p := range posts {
		title := p.Title
		if !p.IsPublished {
			title += " (draft)"
		}
		fmt.Fprintln(e.out, styles.Title.Render(title))
		fmt.Fprintln(e.out, styles.Badge.Render(p.SecureID+"  "+postByline(p)))
	}
	return nil
}

func postByline(p blogsdk.Post) string {
	parts := []string{}
	if p.Author != nil && p.Author.Username != "" {
		parts = append(parts, "by "+p.Author.Username)
	}
	if p.Category != nil && p.Category.Name != "" {
		parts = append(parts, "in "+p.Category.Name)
	}
	if !p.CreatedAt.IsZero() {
		parts = append(parts, p.CreatedAt.Format("2 Jan 2006"))
	}
	return strings.Join(parts, " · ")
}
