package dto

type CreateProjectRequest struct {
	Name          string `json:"name"`
	RepositoryURL string `json:"repository_url"`
	Description   string `json:"description"`
	Language      string `json:"language"`
}

func (r CreateProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Project name is required"
	}
	if r.RepositoryURL == "" {
		errors["repository_url"] = "Repository URL is required"
	}

	return errors
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Status      *string `json:"status"`
}

// ImportGitHubReposRequest selects repositories from the linked GitHub
// account to import as projects.
type ImportGitHubReposRequest struct {
	RepoIDs []int64 `json:"repo_ids"`
}

func (r ImportGitHubReposRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.RepoIDs) == 0 {
		errors["repo_ids"] = "At least one repository must be selected"
	}

	return errors
}
