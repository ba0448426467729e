package contracts

import (
	"github.com/meysamhadeli/projctx/context_storage/models"
	scanmodels "github.com/meysamhadeli/projctx/project_scanner/models"
)

// IContextStorage persists one knowledge document per project.
type IContextStorage interface {
	ProjectKey(projectPath string) string
	Load(projectPath string) (*models.Document, error)
	Save(projectPath string, document *models.Document) error
	SaveScanResult(projectPath string, snapshot *scanmodels.Snapshot) (*models.Document, error)
	AppendUpdate(projectPath string, update models.Update) (*models.LogEntry, error)
	ListProjects() ([]models.ProjectSummary, error)
	TouchLastAccessed(projectPath string) error
	DeleteProject(projectPath string) error
}
