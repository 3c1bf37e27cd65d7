package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// booksCmd represents the books command
var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List indexed books",
	Long:  `Display every book title present in the local index with its chunk count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, err := openRepository(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		titles, err := repo.Books(ctx)
		if err != nil {
			return err
		}

		if len(titles) == 0 {
			fmt.Println("No books indexed yet. Use 'bookowl ingest' to add one.")
			return nil
		}

		for _, title := range titles {
			count, err := repo.Count(ctx, title)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d chunks)\n", title, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
}
