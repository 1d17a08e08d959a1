// Package handler 按业务域划分 HTTP Handler 子包
package handler
