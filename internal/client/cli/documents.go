package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/client/models"
)

// openFile is a test seam for os.Open.
var openFile = func(name string) (*os.File, error) { return os.Open(name) }

// List refreshes the collection and renders it. When the refresh fails
// the previously loaded items are still shown, so a flaky network does
// not blank the screen.
func (a *App) List(ctx context.Context) error {
	if err := a.documents.FetchAll(ctx); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.documents.LastError()))
	}

	items := a.documents.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, dimStyle.Render("No documents yet."))
		return nil
	}

	fmt.Fprintln(a.out, titleStyle.Render("Your documents:"))
	for _, d := range items {
		line := fmt.Sprintf("  %s  %s [%s]", d.Id, d.Name, d.Type)
		if !d.ExpiryDate.IsZero() {
			line += dimStyle.Render("  expires " + d.ExpiryDate.String())
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Show renders one document in full.
func (a *App) Show(ctx context.Context, id string) error {
	d, err := a.documents.Get(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(api.Message(err, "Failed to load document.")))
		return nil
	}

	fmt.Fprintln(a.out, titleStyle.Render(d.Name))
	fmt.Fprintln(a.out, "  Id:          "+d.Id)
	fmt.Fprintln(a.out, "  Type:        "+d.Type)
	fmt.Fprintln(a.out, "  Description: "+d.Description)
	fmt.Fprintln(a.out, "  Expires:     "+d.ExpiryDate.String())
	fmt.Fprintln(a.out, "  File:        "+d.FileUrl)
	return nil
}

// Create walks the user through the upload form. A file is mandatory on
// creation; the form is validated before anything is sent.
func (a *App) Create(ctx context.Context) error {
	up, path, err := a.promptUpload(models.Document{})
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(a.out, errorStyle.Render("Please select a file to upload."))
		return nil
	}

	f, err := openFile(path)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render("Cannot open file: "+err.Error()))
		return nil
	}
	defer f.Close()
	up.File = &api.Attachment{Name: filepath.Base(path), Content: f}

	if err := a.documents.Create(ctx, up); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.documents.LastError()))
		return nil
	}
	fmt.Fprintln(a.out, okStyle.Render("Document uploaded."))
	return nil
}

// Update prefills the form with the current record; empty answers keep
// the current value and an empty file path keeps the existing file.
func (a *App) Update(ctx context.Context, id string) error {
	current, err := a.documents.Get(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(api.Message(err, "Failed to load document.")))
		return nil
	}

	up, path, err := a.promptUpload(*current)
	if err != nil {
		return err
	}
	if path != "" {
		f, err := openFile(path)
		if err != nil {
			fmt.Fprintln(a.out, errorStyle.Render("Cannot open file: "+err.Error()))
			return nil
		}
		defer f.Close()
		up.File = &api.Attachment{Name: filepath.Base(path), Content: f}
	}

	if err := a.documents.Update(ctx, id, up); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.documents.LastError()))
		return nil
	}
	fmt.Fprintln(a.out, okStyle.Render("Document updated."))
	return nil
}

// Delete asks for confirmation before removing the document. The local
// collection only changes once the server acknowledges.
func (a *App) Delete(ctx context.Context, id string) error {
	ok, err := confirm(a.reader, "Are you sure you want to delete this document?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.documents.Remove(ctx, id); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.documents.LastError()))
		return nil
	}
	fmt.Fprintln(a.out, okStyle.Render("Document deleted."))
	return nil
}

// promptUpload collects the structured form fields. When a current record
// is given its values are used as defaults for empty answers. The file
// path is returned separately; the caller decides whether it is required.
func (a *App) promptUpload(current models.Document) (api.Upload, string, error) {
	name, err := getSimpleText(a.reader, promptWithDefault("Document name", current.Name), a.out)
	if err != nil {
		return api.Upload{}, "", err
	}
	if name == "" {
		name = current.Name
	}

	docType, err := getSimpleText(a.reader, promptWithDefault("Document type", current.Type), a.out)
	if err != nil {
		return api.Upload{}, "", err
	}
	if docType == "" {
		docType = current.Type
	}

	description, err := getSimpleText(a.reader, promptWithDefault("Description", current.Description), a.out)
	if err != nil {
		return api.Upload{}, "", err
	}
	if description == "" {
		description = current.Description
	}

	expiry := current.ExpiryDate
	for {
		s, err := getSimpleText(a.reader, promptWithDefault("Expiry date (YYYY-MM-DD)", current.ExpiryDate.String()), a.out)
		if err != nil {
			return api.Upload{}, "", err
		}
		if s == "" {
			break
		}
		d, err := models.ParseDate(s)
		if err != nil {
			fmt.Fprintln(a.out, errorStyle.Render("Invalid date, expected YYYY-MM-DD."))
			continue
		}
		expiry = d
		break
	}

	filePrompt := "File path"
	if current.Id != "" {
		filePrompt = "File path (leave empty to keep current file)"
	}
	path, err := getSimpleText(a.reader, filePrompt, a.out)
	if err != nil {
		return api.Upload{}, "", err
	}

	return api.Upload{
		Name:        name,
		Type:        docType,
		Description: description,
		ExpiryDate:  expiry,
	}, path, nil
}

func promptWithDefault(label, current string) string {
	if current == "" {
		return label
	}
	return label + " [" + current + "]"
}
