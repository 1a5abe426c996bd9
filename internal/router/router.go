package router

import (
	"snipshare/internal/handlers"
	"snipshare/internal/middleware"
	"snipshare/internal/monitoring"
	"snipshare/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const sessionName = "snipshare_session"

// Deps 路由需要的服务
type Deps struct {
	DB            *gorm.DB
	SessionSecret string
	SiteURL       string

	Accounts    *services.AccountService
	Posts       *services.PostService
	Reactions   *services.ReactionService
	Leaderboard *services.LeaderboardService
	LLM         *services.LLMService
}

// New 创建 gin engine 并挂上全局中间件和所有路由
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(monitoring.Middleware())
	r.Use(sessions.Sessions(sessionName, cookie.NewStore([]byte(d.SessionSecret))))
	r.Use(middleware.LoadUser(d.DB))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(d.Accounts)
	postHandler := handlers.NewPostHandler(d.Posts, d.Reactions)
	reactionHandler := handlers.NewReactionHandler(d.Reactions)
	favoriteHandler := handlers.NewFavoriteHandler(d.Reactions)
	leaderboardHandler := handlers.NewLeaderboardHandler(d.Leaderboard)
	userHandler := handlers.NewUserHandler(d.Accounts, d.Posts)
	customizeHandler := handlers.NewCustomizeHandler(d.LLM)
	seoHandler := handlers.NewSEOHandler(d.SiteURL, d.Posts)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// 公共路由 (Public Routes)
	r.GET("/posts", postHandler.List)                     // 帖子列表
	r.GET("/p/:id", postHandler.Detail)                   // 帖子详情
	r.GET("/p/:id/comments", postHandler.ListComments)    // 评论列表
	r.GET("/leaderboard", leaderboardHandler.Show)        // 作者排行榜
	r.GET("/u/:id", userHandler.Profile)                  // 用户主页
	r.GET("/u/:id/favorites", favoriteHandler.ListByUser) // 用户收藏

	r.POST("/signup", authHandler.Register)   // 注册
	r.POST("/activate", authHandler.Activate) // 激活
	r.POST("/login", authHandler.Login)       // 登录
	r.POST("/logout", authHandler.Logout)     // 退出登录

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", authHandler.Me)                            // 当前用户
		authorized.POST("/posts", postHandler.Create)                    // 发布帖子
		authorized.DELETE("/p/:id", postHandler.Delete)                  // 删除帖子
		authorized.POST("/p/:id/comments", postHandler.CreateComment)    // 发表评论
		authorized.POST("/p/:id/like", reactionHandler.Like)             // 点赞
		authorized.POST("/p/:id/dislike", reactionHandler.Dislike)       // 点踩
		authorized.POST("/p/:id/favorite", favoriteHandler.Favorite)     // 收藏
		authorized.DELETE("/p/:id/favorite", favoriteHandler.Unfavorite) // 取消收藏
		authorized.GET("/favorites", favoriteHandler.ListMine)           // 我的收藏
		authorized.POST("/customize", customizeHandler.Customize)        // AI 改写代码
	}
}
