package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/config"
	"github.com/dumeirei/smart-mall-backend/internal/common/jwt"
	"github.com/dumeirei/smart-mall-backend/internal/common/metrics"
	authHandler "github.com/dumeirei/smart-mall-backend/internal/handler/auth"
	mallHandler "github.com/dumeirei/smart-mall-backend/internal/handler/mall"
	marketingHandler "github.com/dumeirei/smart-mall-backend/internal/handler/marketing"
	paymentHandler "github.com/dumeirei/smart-mall-backend/internal/handler/payment"
	uploadHandler "github.com/dumeirei/smart-mall-backend/internal/handler/upload"
	userHandler "github.com/dumeirei/smart-mall-backend/internal/handler/user"
	"github.com/dumeirei/smart-mall-backend/internal/middleware"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
	authService "github.com/dumeirei/smart-mall-backend/internal/service/auth"
	mallService "github.com/dumeirei/smart-mall-backend/internal/service/mall"
	marketingService "github.com/dumeirei/smart-mall-backend/internal/service/marketing"
	paymentService "github.com/dumeirei/smart-mall-backend/internal/service/payment"
	uploadService "github.com/dumeirei/smart-mall-backend/internal/service/upload"
	userService "github.com/dumeirei/smart-mall-backend/internal/service/user"
	"github.com/dumeirei/smart-mall-backend/pkg/oss"
	"github.com/dumeirei/smart-mall-backend/pkg/sms"
	"github.com/dumeirei/smart-mall-backend/pkg/wechatpay"
)

// appServices 后台任务依赖的服务集合
type appServices struct {
	orderService      *mallService.OrderService
	paymentService    *paymentService.PaymentService
	userCouponService *marketingService.UserCouponService
}

// setupRouter 组装全部依赖并注册路由
func setupRouter(
	engine *gin.Engine,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *appServices {
	// 全局中间件
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RealIP())
	engine.Use(middleware.CORS(nil))
	engine.Use(middleware.AccessLog(log))

	// 监控
	if cfg.Metrics.Enabled {
		m := metrics.Init("smart_mall")
		engine.Use(m.Middleware())
		engine.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 限流
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(redisClient)))
	}

	// 健康检查
	engine.GET("/health", healthHandler)
	engine.GET("/ping", pingHandler)
	engine.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 基础设施客户端
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	var smsSender sms.Sender
	if cfg.SMS.Enabled {
		client, err := sms.NewClient(&sms.Config{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
		})
		if err != nil {
			log.Fatal("Failed to init SMS client", zap.Error(err))
		}
		smsSender = client
	} else {
		smsSender = sms.NewMockClient(cfg.SMS.SignName)
	}

	var uploader oss.Uploader
	if cfg.OSS.Enabled {
		aliyunUploader, err := oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.OSS.Endpoint,
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
			BucketName:      cfg.OSS.BucketName,
			Domain:          cfg.OSS.Domain,
			BasePath:        cfg.OSS.BasePath,
		})
		if err != nil {
			log.Fatal("Failed to init OSS uploader", zap.Error(err))
		}
		uploader = aliyunUploader
	} else {
		uploader = oss.NewMockUploader()
	}

	wechatPayClient, err := wechatpay.NewClient(&wechatpay.Config{
		AppID:          cfg.WeChat.AppID,
		MchID:          cfg.WeChat.MchID,
		APIKeyV3:       cfg.WeChat.APIv3Key,
		SerialNo:       cfg.WeChat.SerialNo,
		PrivateKeyPath: cfg.WeChat.PrivateKeyPath,
		NotifyURL:      cfg.WeChat.NotifyURL,
	})
	if err != nil {
		log.Fatal("Failed to init WeChat Pay client", zap.Error(err))
	}

	// 仓储层
	userRepo := repository.NewUserRepository(db)
	memberLevelRepo := repository.NewMemberLevelRepository(db)
	pointsLogRepo := repository.NewPointsLogRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userCouponRepo := repository.NewUserCouponRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	memberPriceRepo := repository.NewMemberPriceRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// 定价引擎
	resolver := pricing.NewResolver(
		productRepo, userRepo, couponRepo, promotionRepo,
		memberPriceRepo, userCouponRepo,
		pricing.Config{PointUnitValue: cfg.Business.Member.PointUnitValue()},
		log,
	)

	// 服务层
	codeSvc := authService.NewCodeService(redisClient, smsSender, nil)
	authSvc := authService.NewAuthService(db, userRepo, jwtManager, codeSvc)
	wechatSvc := authService.NewWechatService(&authService.WechatConfig{
		AppID:     cfg.WeChat.AppID,
		AppSecret: cfg.WeChat.AppSecret,
	}, db, userRepo, jwtManager)

	userSvc := userService.NewUserService(db, userRepo, memberLevelRepo)
	pointsSvc := userService.NewPointsService(db, userRepo, memberLevelRepo, pointsLogRepo)
	addressSvc := userService.NewAddressService(addressRepo)

	productSvc := mallService.NewProductService(productRepo, categoryRepo, redisClient, log)
	orderSvc := mallService.NewOrderService(
		db, resolver, orderRepo,
		productRepo, couponRepo, userCouponRepo, userRepo,
		pointsLogRepo, addressRepo,
		cfg.Business.Order.AutoCancelMinutes, log,
	)

	couponSvc := marketingService.NewCouponService(db, couponRepo, userCouponRepo)
	userCouponSvc := marketingService.NewUserCouponService(userCouponRepo)
	promotionSvc := marketingService.NewPromotionService(promotionRepo)

	paymentSvc := paymentService.NewPaymentService(db, paymentRepo, orderRepo, pointsSvc, wechatPayClient, log)
	uploadSvc := uploadService.NewUploadService(uploader, userRepo)

	// Handler 层
	authH := authHandler.NewHandler(authSvc, wechatSvc, codeSvc)
	productH := mallHandler.NewProductHandler(productSvc, orderSvc)
	orderH := mallHandler.NewOrderHandler(orderSvc)
	couponH := marketingHandler.NewCouponHandler(couponSvc, userCouponSvc)
	promotionH := marketingHandler.NewPromotionHandler(promotionSvc)
	userH := userHandler.NewHandler(userSvc)
	memberH := userHandler.NewMemberHandler(userSvc, pointsSvc)
	addressH := userHandler.NewAddressHandler(addressSvc)
	paymentH := paymentHandler.NewHandler(paymentSvc)
	uploadH := uploadHandler.NewHandler(uploadSvc)

	// 公开路由
	api := engine.Group("/api/v1")
	authH.RegisterRoutes(api)
	promotionH.RegisterRoutes(api)
	paymentH.RegisterCallbackRoutes(api)

	// 商品浏览无需登录，带 token 时附带会员价预览
	browse := api.Group("")
	browse.Use(middleware.OptionalAuth(jwtManager))
	productH.RegisterRoutes(browse)

	// 需认证路由
	protected := api.Group("")
	protected.Use(middleware.UserAuth(jwtManager))
	authH.RegisterProtectedRoutes(protected)
	orderH.RegisterRoutes(protected)
	couponH.RegisterRoutes(protected)
	userH.RegisterRoutes(protected)
	memberH.RegisterRoutes(protected)
	addressH.RegisterRoutes(protected)
	paymentH.RegisterRoutes(protected)
	uploadH.RegisterRoutes(protected)

	return &appServices{
		orderService:      orderSvc,
		paymentService:    paymentSvc,
		userCouponService: userCouponSvc,
	}
}
