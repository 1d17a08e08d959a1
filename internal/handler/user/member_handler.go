package user

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-mall-backend/internal/common/handler"
	userService "github.com/dumeirei/smart-mall-backend/internal/service/user"
)

// MemberHandler 会员与积分处理器
type MemberHandler struct {
	userService   *userService.UserService
	pointsService *userService.PointsService
}

// NewMemberHandler 创建会员与积分处理器
func NewMemberHandler(userSvc *userService.UserService, pointsSvc *userService.PointsService) *MemberHandler {
	return &MemberHandler{
		userService:   userSvc,
		pointsService: pointsSvc,
	}
}

// GetMemberLevels 获取会员等级列表
// @Summary 获取会员等级列表
// @Tags 用户-会员
// @Produce json
// @Success 200 {object} response.Response{data=[]user.MemberLevelInfo}
// @Router /api/v1/member/levels [get]
func (h *MemberHandler) GetMemberLevels(c *gin.Context) {
	levels, err := h.userService.GetMemberLevels(c.Request.Context())
	handler.MustSucceed(c, err, levels)
}

// GetPointsInfo 获取积分概览
// @Summary 获取积分概览与升级进度
// @Tags 用户-会员
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=user.PointsInfo}
// @Router /api/v1/member/points [get]
func (h *MemberHandler) GetPointsInfo(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	info, err := h.pointsService.GetPointsInfo(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// GetPointsHistory 获取积分流水
// @Summary 获取积分流水
// @Tags 用户-会员
// @Produce json
// @Security Bearer
// @Param type query string false "流水类型：consume/deduct/refund/activity/admin"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]user.PointsRecord}
// @Router /api/v1/member/points/history [get]
func (h *MemberHandler) GetPointsHistory(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	logType := c.Query("type")
	p := handler.BindPaginationWithDefaults(c, 1, 20)

	records, total, err := h.pointsService.GetPointsHistory(c.Request.Context(), userID, logType, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, records, total, p.Page, p.PageSize)
}

// RegisterRoutes 注册会员相关路由（需认证）
func (h *MemberHandler) RegisterRoutes(r *gin.RouterGroup) {
	member := r.Group("/member")
	{
		member.GET("/levels", h.GetMemberLevels)
		member.GET("/points", h.GetPointsInfo)
		member.GET("/points/history", h.GetPointsHistory)
	}
}
