package hipster

import "errors"

// 校验类错误：原样返回给调用方，不重试、不产生任何状态变更
var (
	ErrRoomNotFound       = errors.New("房间不存在或已过期")
	ErrPlayerNotFound     = errors.New("玩家不在房间中")
	ErrRoomFull           = errors.New("房间已满")
	ErrNotHost            = errors.New("只有房主可以执行该操作")
	ErrNotYourTurn        = errors.New("还没轮到你")
	ErrWrongPhase         = errors.New("当前阶段不允许该操作")
	ErrPlayersNotReady    = errors.New("还有玩家未准备")
	ErrSongsNotCollected  = errors.New("还有玩家未交齐歌曲")
	ErrInvalidPosition    = errors.New("无效的插入位置")
	ErrNoTokens           = errors.New("代币不足")
	ErrInterceptClaimed   = errors.New("拦截权已被抢占")
	ErrCannotInterceptSelf = errors.New("不能拦截自己的回合")
	ErrNotInterceptor     = errors.New("你没有拦截权")
	ErrDeadlineNotPassed  = errors.New("时限还未到")
	ErrQuotaReached       = errors.New("歌曲贡献数量已达上限")
	ErrDuplicateSong      = errors.New("歌曲池中已存在该歌曲")
	ErrCannotTargetSelf   = errors.New("不能对自己使用代币")
	ErrUnknownAction      = errors.New("未知的指令类型")
	ErrBadCommand         = errors.New("指令缺少房间号或玩家标识")
	ErrDeadlinePassed     = errors.New("时限已过")

	// 存储冲突：乐观并发重试次数耗尽
	ErrStoreConflict = errors.New("房间状态写入冲突，请重试")
)
