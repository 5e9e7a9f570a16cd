package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateRule(ctx context.Context, rule *taxdomain.TaxRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) FindRuleByID(ctx context.Context, id snowflake.ID) (*taxdomain.TaxRule, error) {
	var rule taxdomain.TaxRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListRules(ctx context.Context, filter taxdomain.ListRulesRequest) ([]taxdomain.TaxRule, error) {
	var items []taxdomain.TaxRule
	stmt := r.db.WithContext(ctx).Model(&taxdomain.TaxRule{})

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.Scope != "" {
		stmt = stmt.Where("scope = ?", filter.Scope)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	if err := stmt.Order("apply_order ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateRule(ctx context.Context, rule *taxdomain.TaxRule) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tax_rules
		 SET name = ?, rate = ?, amount = ?, base = ?, apply_order = ?, document_types = ?, description = ?, is_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Name,
		rule.Rate,
		rule.Amount,
		rule.Base,
		rule.ApplyOrder,
		rule.DocumentTypes,
		rule.Description,
		rule.IsEnabled,
		rule.UpdatedAt,
		rule.ID,
	).Error
}

func (r *repository) CreateGroup(ctx context.Context, group *taxdomain.TaxGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) FindGroupByID(ctx context.Context, id snowflake.ID) (*taxdomain.TaxGroup, error) {
	var group taxdomain.TaxGroup
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListGroups(ctx context.Context, filter taxdomain.ListGroupsRequest) ([]taxdomain.TaxGroup, error) {
	var items []taxdomain.TaxGroup
	stmt := r.db.WithContext(ctx).
		Model(&taxdomain.TaxGroup{}).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateGroup(ctx context.Context, group *taxdomain.TaxGroup) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tax_groups
		 SET name = ?, is_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		group.Name,
		group.IsEnabled,
		group.UpdatedAt,
		group.ID,
	).Error
}

func (r *repository) ReplaceGroupMembers(ctx context.Context, groupID snowflake.ID, members []taxdomain.TaxGroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&taxdomain.TaxGroupMember{}).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

func (r *repository) LoadConfiguration(ctx context.Context) ([]taxdomain.TaxRule, []taxdomain.TaxGroup, error) {
	var rules []taxdomain.TaxRule
	if err := r.db.WithContext(ctx).Order("apply_order ASC, id ASC").Find(&rules).Error; err != nil {
		return nil, nil, err
	}

	var groups []taxdomain.TaxGroup
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&groups).Error
	if err != nil {
		return nil, nil, err
	}
	return rules, groups, nil
}
