// Package drive watches a Google Drive folder tree.
//
// Listing uses files.list with a modified-or-created query per folder,
// descending into subfolders breadth first. Google Workspace files are
// exported (Docs and Slides to text, Sheets to CSV); everything else is
// downloaded as is.
package drive
