package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	taxdomain "github.com/facturio/facturio/internal/tax/domain"
	"github.com/facturio/facturio/internal/taxengine"
	"github.com/facturio/facturio/pkg/db"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  taxdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  taxdomain.Repository
}

func NewService(p serviceParams) taxdomain.Service {
	return &Service{
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateRule(ctx context.Context, req taxdomain.CreateRuleRequest) (*taxdomain.RuleResponse, error) {
	base := req.Base
	if base == "" {
		base = taxengine.BaseRawSubtotal
	}
	scope := req.Scope
	if scope == "" {
		scope = taxdomain.TaxScopeProduct
	}
	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	record := &taxdomain.TaxRule{
		ID:            s.genID.Generate(),
		Code:          strings.TrimSpace(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Kind:          req.Kind,
		Rate:          req.Rate,
		Amount:        req.Amount,
		Base:          base,
		Scope:         scope,
		ApplyOrder:    req.ApplyOrder,
		DocumentTypes: datatypes.JSONSlice[taxengine.DocumentType](req.DocumentTypes),
		Description:   trimPtr(req.Description),
		IsEnabled:     isEnabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateRule(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, taxdomain.ErrDuplicateTaxCode
		}
		return nil, err
	}

	s.log.Info("tax rule created",
		zap.String("tax_rule_id", record.ID.String()),
		zap.String("code", record.Code),
		zap.String("kind", string(record.Kind)),
	)

	resp := toRuleResponse(record)
	return &resp, nil
}

func (s *Service) ListRules(ctx context.Context, req taxdomain.ListRulesRequest) ([]taxdomain.RuleResponse, error) {
	filter := taxdomain.ListRulesRequest{
		Name:      strings.TrimSpace(req.Name),
		Code:      strings.TrimSpace(req.Code),
		Scope:     strings.TrimSpace(req.Scope),
		IsEnabled: req.IsEnabled,
	}

	items, err := s.repo.ListRules(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.RuleResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toRuleResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) UpdateRule(ctx context.Context, req taxdomain.UpdateRuleRequest) (*taxdomain.RuleResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	record, err := s.repo.FindRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, taxdomain.ErrNotFound
	}

	if req.Name != nil {
		record.Name = strings.TrimSpace(*req.Name)
	}
	if req.Rate != nil {
		record.Rate = req.Rate
	}
	if req.Amount != nil {
		record.Amount = req.Amount
	}
	if req.Base != nil {
		record.Base = *req.Base
	}
	if req.ApplyOrder != nil {
		record.ApplyOrder = *req.ApplyOrder
	}
	if req.DocumentTypes != nil {
		record.DocumentTypes = datatypes.JSONSlice[taxengine.DocumentType](*req.DocumentTypes)
	}
	if req.Description != nil {
		record.Description = trimPtr(req.Description)
	}
	record.UpdatedAt = time.Now().UTC()

	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRule(ctx, record); err != nil {
		return nil, err
	}

	resp := toRuleResponse(record)
	return &resp, nil
}

func (s *Service) DisableRule(ctx context.Context, rawID string) (*taxdomain.RuleResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	record, err := s.repo.FindRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, taxdomain.ErrNotFound
	}

	record.IsEnabled = false
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateRule(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info("tax rule disabled", zap.String("tax_rule_id", record.ID.String()), zap.String("code", record.Code))

	resp := toRuleResponse(record)
	return &resp, nil
}

func (s *Service) CreateGroup(ctx context.Context, req taxdomain.CreateGroupRequest) (*taxdomain.GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, taxdomain.ErrInvalidName
	}

	members, err := s.buildMembers(ctx, req.Members)
	if err != nil {
		return nil, err
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	group := &taxdomain.TaxGroup{
		ID:        s.genID.Generate(),
		Name:      name,
		IsEnabled: isEnabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range members {
		members[i].GroupID = group.ID
	}
	group.Members = members

	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	s.log.Info("tax group created",
		zap.String("tax_group_id", group.ID.String()),
		zap.Int("members", len(group.Members)),
	)

	return s.groupResponse(ctx, group)
}

func (s *Service) ListGroups(ctx context.Context, req taxdomain.ListGroupsRequest) ([]taxdomain.GroupResponse, error) {
	filter := taxdomain.ListGroupsRequest{
		Name:      strings.TrimSpace(req.Name),
		IsEnabled: req.IsEnabled,
	}

	items, err := s.repo.ListGroups(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.GroupResponse, 0, len(items))
	for i := range items {
		gr, err := s.groupResponse(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		resp = append(resp, *gr)
	}
	return resp, nil
}

func (s *Service) UpdateGroup(ctx context.Context, req taxdomain.UpdateGroupRequest) (*taxdomain.GroupResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	group, err := s.repo.FindGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, taxdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, taxdomain.ErrInvalidName
		}
		group.Name = name
	}
	group.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}

	if req.Members != nil {
		members, err := s.buildMembers(ctx, *req.Members)
		if err != nil {
			return nil, err
		}
		for i := range members {
			members[i].GroupID = group.ID
		}
		if err := s.repo.ReplaceGroupMembers(ctx, group.ID, members); err != nil {
			return nil, err
		}
		group.Members = members
	}

	return s.groupResponse(ctx, group)
}

func (s *Service) DisableGroup(ctx context.Context, rawID string) (*taxdomain.GroupResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	group, err := s.repo.FindGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, taxdomain.ErrNotFound
	}

	group.IsEnabled = false
	group.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}

	s.log.Info("tax group disabled", zap.String("tax_group_id", group.ID.String()))

	return s.groupResponse(ctx, group)
}

// buildMembers validates member references against existing rules and
// assigns positions from request order.
func (s *Service) buildMembers(ctx context.Context, reqs []taxdomain.GroupMemberRequest) ([]taxdomain.TaxGroupMember, error) {
	members := make([]taxdomain.TaxGroupMember, 0, len(reqs))
	now := time.Now().UTC()
	for i, m := range reqs {
		ruleID, err := snowflake.ParseString(strings.TrimSpace(m.RuleID))
		if err != nil {
			return nil, taxdomain.ErrInvalidMember
		}
		rule, err := s.repo.FindRuleByID(ctx, ruleID)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			return nil, taxdomain.ErrInvalidMember
		}
		members = append(members, taxdomain.TaxGroupMember{
			ID:            s.genID.Generate(),
			RuleID:        ruleID,
			Position:      i,
			OrderOverride: m.OrderOverride,
			BaseOverride:  m.BaseOverride,
			CreatedAt:     now,
		})
	}
	return members, nil
}

func (s *Service) groupResponse(ctx context.Context, group *taxdomain.TaxGroup) (*taxdomain.GroupResponse, error) {
	resp := taxdomain.GroupResponse{
		ID:        group.ID.String(),
		Name:      group.Name,
		IsEnabled: group.IsEnabled,
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}
	for _, m := range group.Members {
		member := taxdomain.GroupMemberResponse{
			RuleID:        m.RuleID.String(),
			Position:      m.Position,
			OrderOverride: m.OrderOverride,
			BaseOverride:  m.BaseOverride,
		}
		if rule, err := s.repo.FindRuleByID(ctx, m.RuleID); err == nil && rule != nil {
			member.RuleName = rule.Name
		}
		resp.Members = append(resp.Members, member)
	}
	return &resp, nil
}

func toRuleResponse(rule *taxdomain.TaxRule) taxdomain.RuleResponse {
	return taxdomain.RuleResponse{
		ID:            rule.ID.String(),
		Code:          rule.Code,
		Name:          rule.Name,
		Kind:          rule.Kind,
		Rate:          rule.Rate,
		Amount:        rule.Amount,
		Base:          rule.Base,
		Scope:         rule.Scope,
		ApplyOrder:    rule.ApplyOrder,
		DocumentTypes: rule.DocumentTypes,
		Description:   rule.Description,
		IsEnabled:     rule.IsEnabled,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
