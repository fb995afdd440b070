package parser

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pizza-rag/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const defaultPageNumber = 1

// WordprocessingML (w:) and DrawingML (a:) share the paragraph and text run
// layout, so DOCX bodies and PPTX slides go through the same extractor.
var (
	paragraphEndRe = regexp.MustCompile(`</[wa]:p>`)
	textRunRe      = regexp.MustCompile(`<[wa]:t(?:\s[^>]*)?>([^<]*)</[wa]:t>`)
	slideNameRe    = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// Load reads a source file into page-level documents tagged with source.
// The format is chosen from the file extension.
func Load(filePath string, source models.Source) ([]models.Document, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("invalid source label %q", source)
	}

	var (
		docs []models.Document
		err  error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		docs, err = loadPDF(filePath)
	case ".docx":
		docs, err = loadDOCX(filePath)
	case ".pptx":
		docs, err = loadPPTX(filePath)
	case ".xlsx":
		docs, err = loadXLSX(filePath)
	case ".txt", ".md":
		docs, err = loadText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
	}

	for i := range docs {
		docs[i].Source = source
	}
	log.Debug().Str("file", filePath).Str("source", string(source)).Int("pages", len(docs)).Msg("Loaded document")
	return docs, nil
}

func loadPDF(filePath string) ([]models.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		docs = append(docs, models.Document{
			Content:    pageText,
			PageNumber: i,
		})
	}
	return docs, nil
}

func loadDOCX(filePath string) ([]models.Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := extractTextFromXML(r.Editable().GetContent())
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	// DOCX has no page numbers
	return []models.Document{{Content: content, PageNumber: defaultPageNumber}}, nil
}

// loadPPTX returns one document per non-empty slide, numbered like the
// slide file so page numbers match what the presenter sees.
func loadPPTX(filePath string) ([]models.Document, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var docs []models.Document
	for _, file := range r.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		slideNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) == "" {
			continue
		}
		docs = append(docs, models.Document{
			Content:    slideText,
			PageNumber: slideNum,
		})
	}
	// zip entries are not guaranteed to be in slide order
	sort.Slice(docs, func(i, j int) bool { return docs[i].PageNumber < docs[j].PageNumber })
	return docs, nil
}

func loadXLSX(filePath string) ([]models.Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []models.Document
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		docs = append(docs, models.Document{
			Content:    text.String(),
			PageNumber: sheetNum + 1, // 1-based indexing
		})
	}
	return docs, nil
}

func loadText(filePath string) ([]models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []models.Document{{Content: string(data), PageNumber: defaultPageNumber}}, nil
}

// extractTextFromXML keeps the text runs of a DOCX body or PPTX slide, one
// line per paragraph.
func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	for _, paragraph := range paragraphEndRe.Split(xmlContent, -1) {
		var line strings.Builder
		for _, m := range textRunRe.FindAllStringSubmatch(paragraph, -1) {
			line.WriteString(m[1])
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			text.WriteString(html.UnescapeString(s))
			text.WriteString("\n")
		}
	}
	return text.String()
}
