package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF and make it chattable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Uploading %s...", filePath)
		resp, err := client.uploadFile(cmd.Context(), "/upload-pdf", filePath)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("%s (doc_id: %s)", result["message"], result["doc_id"])
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <doc-id> <question>",
	Short: "Ask a question about an uploaded document",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID := args[0]
		question := strings.Join(args[1:], " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat", map[string]any{
			"doc_id":   docID,
			"question": question,
		})
		if err != nil {
			return err
		}

		var result struct {
			Answer  string `json:"answer"`
			Sources []struct {
				PageNumber *int   `json:"page_number"`
				Snippet    string `json:"snippet"`
			} `json:"sources"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Answer)

		showSources, _ := cmd.Flags().GetBool("sources")
		if showSources && len(result.Sources) > 0 {
			fmt.Println()
			for i, s := range result.Sources {
				label := fmt.Sprintf("Source %d", i+1)
				if s.PageNumber != nil {
					label = fmt.Sprintf("Source %d (page %d)", i+1, *s.PageNumber)
				}
				fmt.Printf("%s\n  %s\n", colorize(colorBold, label), s.Snippet)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("sources", false, "show supporting excerpts")
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage uploaded documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/documents")
		if err != nil {
			return err
		}

		var docs []struct {
			ID         string `json:"id"`
			Filename   string `json:"filename"`
			Pages      int    `json:"pages"`
			ChunkCount int    `json:"chunk_count"`
			CreatedAt  string `json:"created_at"`
		}
		if err := decodeJSON(resp, &docs); err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Println("No documents uploaded.")
			return nil
		}

		for _, d := range docs {
			fmt.Printf("%s  %s (%d pages, %d chunks)\n",
				colorize(colorCyan, d.ID),
				d.Filename,
				d.Pages,
				d.ChunkCount,
			)
		}
		return nil
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and its search index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/documents/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted document %s", args[0])
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}

// --- conversations ---

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Show the interaction log as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/conversations")
		if err != nil {
			return err
		}

		var records []any
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}
