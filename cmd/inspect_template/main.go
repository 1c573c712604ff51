package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docupipe/registrofill/internal/mapping"
	"github.com/docupipe/registrofill/internal/pdfform"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	showMapping  = flag.Bool("mapping", true, "Show the mapping derived for the template")
	help         = flag.Bool("help", false, "Show help message")
)

// TemplateInspection is the full result of inspecting one template file.
type TemplateInspection struct {
	FilePath   string              `json:"file_path"`
	FieldCount int                 `json:"field_count"`
	Fields     []pdfform.Field     `json:"fields"`
	Mapping    map[string][]string `json:"mapping,omitempty"`
}

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF template path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	absPath, err := filepath.Abs(pdfPath)
	if err == nil {
		pdfPath = absPath
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", pdfPath, err)
		os.Exit(1)
	}

	doc, err := pdfform.Load(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot load PDF: %v\n", err)
		os.Exit(1)
	}

	result := &TemplateInspection{
		FilePath:   pdfPath,
		FieldCount: len(doc.FieldNames()),
		Fields:     doc.Fields(),
	}
	if *showMapping {
		result.Mapping = mapping.Resolve(doc.FieldNames())
	}

	if err := outputResults(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Inspect Template - list form fields and derived mapping of a fillable PDF")
	fmt.Println()
	fmt.Println("Shows the field vocabulary a template exposes and which canonical registry")
	fmt.Println("keys would be routed to each field. Use it to decide whether a template")
	fmt.Println("needs mapping overrides before registering it.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -mapping       Show the derived mapping (default true)")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  inspect_template template.pdf")
	fmt.Println("  inspect_template -format json template.pdf")
	fmt.Println("  inspect_template -mapping=false template.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  inspect_template [OPTIONS] <pdf_file>")
}

func outputResults(result *TemplateInspection) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(result *TemplateInspection) error {
	if result.FieldCount == 0 {
		fmt.Println("No form fields detected in the PDF")
		fmt.Println()
		fmt.Println("This file cannot be used as a fill template. It may be a flat or")
		fmt.Println("scanned document without an interactive form layer.")
		return nil
	}

	fmt.Printf("Template: %s\n", result.FilePath)
	fmt.Printf("Form fields: %d\n\n", result.FieldCount)

	for i, field := range result.Fields {
		fmt.Printf("[%d] %s\n", i+1, field.Name)
		fmt.Printf("    Type: %s\n", field.Type)
		if field.Value != "" {
			fmt.Printf("    Value: %s\n", field.Value)
		}
	}

	if result.Mapping != nil {
		fmt.Printf("\nDerived mapping (%d keys):\n", len(result.Mapping))
		if len(result.Mapping) == 0 {
			fmt.Println("  (none; the field names match no known registry key patterns)")
		}
		for _, key := range sortedMappingKeys(result.Mapping) {
			fmt.Printf("  %-28s -> %s\n", key, strings.Join(result.Mapping[key], ", "))
		}
	}

	return nil
}

func sortedMappingKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	flag.Usage = func() {
		printHelp()
	}
}
