package gp

import (
	"github.com/YuminosukeSato/gpr/kernel"
	"github.com/YuminosukeSato/gpr/pkg/log"
)

// DefaultParallelThreshold は Gram 行列とカーネルベクトルを並列計算に
// 切り替えるサンプル数のしきい値
const DefaultParallelThreshold = 64

// Option は GaussianProcess の設定を変更する関数
type Option[T kernel.Float] func(*GaussianProcess[T])

// WithSigma はグラム行列の対角に加えるノイズ σ を設定する
func WithSigma[T kernel.Float](sigma T) Option[T] {
	return func(g *GaussianProcess[T]) {
		g.sigma = sigma
	}
}

// WithInversionMethod は逆行列の計算方法を設定する
func WithInversionMethod[T kernel.Float](method InversionMethod) Option[T] {
	return func(g *GaussianProcess[T]) {
		g.method = method
	}
}

// WithDebug は診断ログと数値不安定性の警告を有効にする
func WithDebug[T kernel.Float](debug bool) Option[T] {
	return func(g *GaussianProcess[T]) {
		g.debug = debug
	}
}

// WithLogger はロガーを設定する。nil の場合はグローバルロガーを使う
func WithLogger[T kernel.Float](logger log.Logger) Option[T] {
	return func(g *GaussianProcess[T]) {
		g.baseLogger = logger
	}
}

// WithRegistry は Load でカーネルを復元するレジストリを設定する
func WithRegistry[T kernel.Float](registry *kernel.Registry[T]) Option[T] {
	return func(g *GaussianProcess[T]) {
		g.registry = registry
	}
}

// WithParallelThreshold は並列計算に切り替えるサンプル数を設定する
func WithParallelThreshold[T kernel.Float](threshold int) Option[T] {
	return func(g *GaussianProcess[T]) {
		if threshold < 0 {
			threshold = 0
		}
		g.parallelThreshold = threshold
	}
}
