package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LocalForge keeps releases in a sqlite database next to the workspace and
// copies uploaded files beside it. Dry runs and offline rehearsals use it;
// the unique tag index gives it the same create-once behavior as a forge.
type LocalForge struct {
	db  *gorm.DB
	dir string // uploaded files live under dir/<tag>/
}

type localRelease struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Tag        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name       string `gorm:"type:varchar(255)"`
	Body       string `gorm:"type:text"`
	Draft      bool
	Prerelease bool
	CreatedAt  time.Time
	Assets     []localAsset `gorm:"foreignKey:ReleaseID;constraint:OnDelete:CASCADE"`
}

type localAsset struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	ReleaseID string `gorm:"type:varchar(36);uniqueIndex:idx_release_asset_name"`
	Name      string `gorm:"type:varchar(255);uniqueIndex:idx_release_asset_name"`
	Path      string
	Size      int64
	CreatedAt time.Time
}

// OpenLocal opens (creating if needed) the store at path.
func OpenLocal(path string) (*LocalForge, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating release store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening release store %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&localRelease{}, &localAsset{}); err != nil {
		return nil, fmt.Errorf("migrating release store: %w", err)
	}

	return &LocalForge{db: db, dir: filepath.Join(filepath.Dir(path), "assets")}, nil
}

// Close releases the database handle.
func (l *LocalForge) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (l *LocalForge) Provider() Provider { return Local }

func (r localRelease) release(dir string) *Release {
	return &Release{
		ID:         r.ID,
		TagName:    r.Tag,
		Name:       r.Name,
		Draft:      r.Draft,
		Prerelease: r.Prerelease,
		URL:        "file://" + filepath.ToSlash(filepath.Join(dir, r.Tag)),
		Body:       r.Body,
	}
}

func (a localAsset) info() AssetInfo {
	return AssetInfo{
		ID:          a.ID,
		Name:        a.Name,
		Size:        a.Size,
		DownloadURL: "file://" + filepath.ToSlash(a.Path),
		CreatedAt:   a.CreatedAt,
	}
}

func (l *LocalForge) CreateRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	if opts.TagName == "" {
		return nil, fmt.Errorf("local release: tag is required")
	}
	rel := localRelease{
		ID:         uuid.NewString(),
		Tag:        opts.TagName,
		Name:       opts.Name,
		Body:       opts.Description,
		Draft:      opts.Draft,
		Prerelease: opts.Prerelease,
	}
	if err := l.db.WithContext(ctx).Create(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("local release %q: %w", opts.TagName, ErrAlreadyExists)
		}
		return nil, err
	}
	return rel.release(l.dir), nil
}

func (l *LocalForge) FindRelease(ctx context.Context, tag string) (*Release, error) {
	var rel localRelease
	if err := l.db.WithContext(ctx).Where("tag = ?", tag).First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("local release %q: %w", tag, ErrNotFound)
		}
		return nil, err
	}
	return rel.release(l.dir), nil
}

// ListReleases returns at most one release: the tag index is unique.
func (l *LocalForge) ListReleases(ctx context.Context, tag string) ([]*Release, error) {
	var rows []localRelease
	if err := l.db.WithContext(ctx).Where("tag = ?", tag).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*Release, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.release(l.dir))
	}
	return out, nil
}

func (l *LocalForge) DeleteRelease(ctx context.Context, rel *Release) error {
	res := l.db.WithContext(ctx).Delete(&localRelease{}, "id = ?", rel.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("local release %q: %w", rel.TagName, ErrNotFound)
	}
	return os.RemoveAll(filepath.Join(l.dir, rel.TagName))
}

func (l *LocalForge) ListAssets(ctx context.Context, rel *Release) ([]AssetInfo, error) {
	var assets []localAsset
	if err := l.db.WithContext(ctx).Where("release_id = ?", rel.ID).Order("name").Find(&assets).Error; err != nil {
		return nil, err
	}
	out := make([]AssetInfo, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.info())
	}
	return out, nil
}

func (l *LocalForge) UploadAsset(ctx context.Context, rel *Release, asset Asset) (*AssetInfo, error) {
	dest := filepath.Join(l.dir, rel.TagName, asset.Name)
	row := localAsset{
		ID:        uuid.NewString(),
		ReleaseID: rel.ID,
		Name:      asset.Name,
		Path:      dest,
	}

	// Claim the name first so a concurrent upload of the same file fails
	// instead of overwriting the copy.
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("local asset %q: %w", asset.Name, ErrAlreadyExists)
		}
		return nil, err
	}

	size, err := copyFile(asset.FilePath, dest)
	if err != nil {
		err = fmt.Errorf("uploading %s: %w", asset.Name, err)
		if rbErr := l.db.WithContext(ctx).Delete(&localAsset{}, "id = ?", row.ID).Error; rbErr != nil {
			err = errors.Join(err, fmt.Errorf("releasing name %s: %w", asset.Name, rbErr))
		}
		return nil, err
	}
	if err := l.db.WithContext(ctx).Model(&row).Update("size", size).Error; err != nil {
		return nil, err
	}
	row.Size = size

	info := row.info()
	return &info, nil
}

func (l *LocalForge) DeleteAsset(ctx context.Context, _ *Release, asset AssetInfo) error {
	var row localAsset
	if err := l.db.WithContext(ctx).Where("id = ?", asset.ID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("local asset %q: %w", asset.Name, ErrNotFound)
		}
		return err
	}
	if err := l.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return err
	}
	if err := os.Remove(row.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
