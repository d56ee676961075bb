package admin

import (
	"bytes"
	"testing"
	"time"

	"github.com/amirphl/Tsukuyomi/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTagTable() Table {
	category := "culture"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tags := []*models.Tag{
		{ID: uuid.New(), Name: "jazz", TagType: "topic", TagCategory: &category, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "<script>alert(1)</script>", TagType: "format", CreatedAt: now, UpdatedAt: now},
	}
	table := Table{Manifest: TagManifest, Total: 41, Page: 2, PerPage: 20}
	for _, tag := range tags {
		table.Rows = append(table.Rows, TagRow(tag))
	}
	return table
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, "/admin", sampleTagTable(), FilterValues{"tag_type": "topic"})
	require.NoError(t, err)
	html := buf.String()

	assert.Contains(t, html, "<th>Name</th><th>Tag type</th><th>Tag category</th><th>Updated</th><th>Created</th>")
	assert.Contains(t, html, "<td>jazz</td>")
	assert.Contains(t, html, "2024-05-01T12:00:00Z")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `<option value="topic" selected>topic</option>`)
	assert.Contains(t, html, "Page 2 of 3")
	assert.Contains(t, html, "/admin/tags/export?tag_type=topic")
	assert.Contains(t, html, "/admin/tags?page=1&amp;tag_type=topic")
	assert.Contains(t, html, "/admin/tags?page=3&amp;tag_type=topic")
}

func TestRenderHTMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "/admin", Table{Manifest: RegionManifest, Page: 1}, nil))
	assert.Contains(t, buf.String(), "No records")
	assert.Contains(t, buf.String(), "Page 1 of 1")
}

func TestExportXLSX(t *testing.T) {
	table := sampleTagTable()
	data, err := ExportXLSX(table)
	require.NoError(t, err)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Tags")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Tag type", "Tag category", "Updated", "Created"}, rows[0])
	assert.Equal(t, "jazz", rows[1][0])
	assert.Equal(t, "culture", rows[1][2])
	assert.Equal(t, "tags.xlsx", ExportFilename(table))
}

func TestUserRowHidesSecrets(t *testing.T) {
	token := "digest"
	last := "Lovelace"
	u := &models.User{ID: uuid.New(), Email: "ada@example.com", EncryptedPassword: "hash", Token: &token, LastName: &last, Roles: []string{"admin", "editor"}}

	row := UserRow(u)
	for _, v := range row.Values {
		assert.NotEqual(t, "hash", v)
		assert.NotEqual(t, "digest", v)
	}
	assert.Equal(t, "admin, editor", row.Values["roles"])
	assert.Equal(t, "no", row.Values["locked"])
	assert.Equal(t, "", row.Values["last_sign_in_at"])
}
