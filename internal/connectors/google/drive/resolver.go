package drive

// WebURL returns the browser link for a Drive file.
// The webViewLink reported by the API wins; otherwise the generic viewer
// URL is built from the id.
func WebURL(fileID, webViewLink string) string {
	if webViewLink != "" {
		return webViewLink
	}
	if fileID == "" {
		return ""
	}
	return "https://drive.google.com/file/d/" + fileID + "/view"
}
