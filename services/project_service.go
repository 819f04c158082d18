package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodyshaheen/protfolio/errs"
	"github.com/moodyshaheen/protfolio/models"
	"github.com/moodyshaheen/protfolio/storage"
)

// ProjectRepo is the persistence surface the service needs.
// *database.ProjectRepo satisfies it; tests inject a fake.
type ProjectRepo interface {
	FindAll() ([]*models.Project, error)
	FindByID(id uuid.UUID) (*models.Project, error)
	Add(project *models.Project) error
	Update(project *models.Project) error
	Delete(id uuid.UUID) error
}

// NewProject carries the fields for a create request.
type NewProject struct {
	Title        string
	Description  string
	GithubLink   string
	VideoLink    string
	Technologies []string
}

// ProjectUpdate carries partial fields for an update request. A nil pointer
// leaves the field unchanged; a supplied technologies list replaces the
// prior list wholesale.
type ProjectUpdate struct {
	Title        *string
	Description  *string
	GithubLink   *string
	VideoLink    *string
	Technologies *[]string
}

// ProjectService keeps a project's image reference and its stored asset
// consistent across create, update and delete. There is no cross-store
// transaction: the orderings below bound what a crash can leave behind to
// orphaned files, never to records pointing at missing files.
type ProjectService struct {
	repo   ProjectRepo
	store  storage.Store
	logger zerolog.Logger
}

func NewProjectService(repo ProjectRepo, store storage.Store) *ProjectService {
	logger := log.With().Str("service", "projectService").Logger()
	return &ProjectService{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// List returns all projects, newest first.
func (s *ProjectService) List() ([]*models.Project, error) {
	projects, err := s.repo.FindAll()
	if err != nil {
		return nil, errs.NewDatabaseError("find", "projects", err)
	}
	return projects, nil
}

// Get returns the project with the given id.
func (s *ProjectService) Get(id uuid.UUID) (*models.Project, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	if project == nil {
		return nil, errs.NewNotFound("project")
	}
	return project, nil
}

// Create stores the asset first, if one was supplied, and only then writes
// the record. A store failure aborts before the repository is touched, so no
// record ever carries a dangling reference. If the record insert fails the
// just-stored asset is removed again.
func (s *ProjectService) Create(input NewProject, upload *storage.Upload) (*models.Project, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, errs.NewMissingRequiredFieldError("description")
	}

	ref := ""
	if upload != nil {
		var err error
		ref, err = s.store.Save(*upload)
		if err != nil {
			return nil, err
		}
	}

	project := &models.Project{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		GithubLink:  input.GithubLink,
		VideoLink:   input.VideoLink,
		Image:       ref,
	}
	project.SetTechnologies(input.Technologies)

	if err := s.repo.Add(project); err != nil {
		if ref != "" {
			if rmErr := s.store.Remove(ref); rmErr != nil {
				s.logger.Error().Err(rmErr).Str("ref", ref).Msg("failed to remove asset after aborted create")
			}
		}
		return nil, errs.NewDatabaseError("create", "project", err)
	}

	return project, nil
}

// Update applies the supplied fields to an existing project. When a new
// asset is supplied the order is: store new, commit record, delete old. A
// crash mid-sequence leaves at worst an orphaned file, recoverable by
// SweepOrphans; the record never points at a missing asset. Without a new
// asset the image and its file stay untouched.
func (s *ProjectService) Update(id uuid.UUID, update ProjectUpdate, upload *storage.Upload) (*models.Project, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	if project == nil {
		return nil, errs.NewNotFound("project")
	}

	newRef := ""
	if upload != nil {
		newRef, err = s.store.Save(*upload)
		if err != nil {
			return nil, err
		}
	}

	if update.Title != nil && *update.Title != "" {
		project.Title = *update.Title
	}
	if update.Description != nil && *update.Description != "" {
		project.Description = *update.Description
	}
	if update.GithubLink != nil {
		project.GithubLink = *update.GithubLink
	}
	if update.VideoLink != nil {
		project.VideoLink = *update.VideoLink
	}
	if update.Technologies != nil {
		project.SetTechnologies(*update.Technologies)
	}

	oldRef := project.Image
	if newRef != "" {
		project.Image = newRef
	}

	if err := s.repo.Update(project); err != nil {
		if newRef != "" {
			if rmErr := s.store.Remove(newRef); rmErr != nil {
				s.logger.Error().Err(rmErr).Str("ref", newRef).Msg("failed to remove asset after aborted update")
			}
		}
		return nil, errs.NewDatabaseError("update", "project", err)
	}

	// the record is committed; only now is the old asset free to go
	if newRef != "" && oldRef != "" && oldRef != newRef {
		if rmErr := s.store.Remove(oldRef); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("ref", oldRef).Msg("failed to remove superseded asset; left for sweep")
		}
	}

	return project, nil
}

// Delete removes the project's asset and then its record. Asset removal is
// idempotent, so a retry after a crash between the two steps clears the
// temporarily broken image reference.
func (s *ProjectService) Delete(id uuid.UUID) error {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return errs.NewDatabaseError("find", "project", err)
	}
	if project == nil {
		return errs.NewNotFound("project")
	}

	if project.Image != "" {
		if err := s.store.Remove(project.Image); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(id); err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}
	return nil
}

// SweepOrphans removes stored assets no record references and returns how
// many were freed. It runs on demand only; a sweep racing an in-flight
// upload could reap an asset whose record has not committed yet, so run it
// quiesced.
func (s *ProjectService) SweepOrphans() (int, error) {
	refs, err := s.store.List()
	if err != nil {
		return 0, err
	}

	projects, err := s.repo.FindAll()
	if err != nil {
		return 0, errs.NewDatabaseError("find", "projects", err)
	}

	live := make(map[string]bool, len(projects))
	for _, project := range projects {
		if project.Image != "" {
			live[project.Image] = true
		}
	}

	removed := 0
	for _, ref := range refs {
		if live[ref] {
			continue
		}
		if err := s.store.Remove(ref); err != nil {
			s.logger.Error().Err(err).Str("ref", ref).Msg("failed to remove orphaned asset")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("swept orphaned assets")
	}
	return removed, nil
}
