package remote

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateProfile(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProfileByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) InsertUserSession(ctx context.Context, s *UserSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) InsertConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) InsertConversationMessage(ctx context.Context, m *ConversationMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}
